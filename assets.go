package datagrid

import (
	"embed"
	"encoding/base64"
	"fmt"
	"io/fs"
	"mime"
	"path"
)

//go:embed assets/*.svg
var embeddedAssets embed.FS

// AssetProvider supplies the icon bytes inlined into the grid markup
type AssetProvider interface {
	Asset(name string) ([]byte, error)
}

// FSAssets serves assets from a file system
type FSAssets struct {
	FS fs.FS
}

func (a FSAssets) Asset(name string) ([]byte, error) {
	return fs.ReadFile(a.FS, name)
}

// DefaultAssets returns the icons shipped with the package
func DefaultAssets() AssetProvider {
	sub, _ := fs.Sub(embeddedAssets, "assets")
	return FSAssets{FS: sub}
}

const (
	imgEdit   = "edit.svg"
	imgDelete = "delete.svg"
	imgCreate = "create.svg"
	imgReset  = "reset.svg"
	imgCheck  = "check.svg"
	imgFilter = "filter.svg"
)

// DataURI encodes b as an inline data URI typed after name's extension
func DataURI(name string, b []byte) string {
	typ := mime.TypeByExtension(path.Ext(name))
	if typ == "" {
		typ = "application/octet-stream"
	}
	return fmt.Sprintf("data:%s;base64,%s", typ, base64.StdEncoding.EncodeToString(b))
}

// image returns the data URI for a named asset, cached for the render.
// Missing assets yield an empty source.
func (g *Grid) image(name string) string {
	if uri, ok := g.images[name]; ok {
		return uri
	}
	uri := ""
	if b, err := g.assets.Asset(name); err != nil {
		g.logger.Debug("Grid asset not available", "name", name, "error", err)
	} else {
		uri = DataURI(name, b)
	}
	g.images[name] = uri
	return uri
}
