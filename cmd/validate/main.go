package main

import (
	"fmt"
	"os"
	"path/filepath"

	datagrid "github.com/gnemet/sqlgrid"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: datagrid-validator <definition_path1> [definition_path2] ...")
		os.Exit(1)
	}

	allValid := true
	for _, path := range os.Args[1:] {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Printf("❌ Cannot read %s: %v\n", path, err)
			allValid = false
			continue
		}

		if err := datagrid.ValidateDefinition(data); err != nil {
			fmt.Printf("❌ %s is invalid!\n   - %v\n", filepath.Base(path), err)
			allValid = false
			continue
		}
		fmt.Printf("✅ %s is valid.\n", filepath.Base(path))
	}

	if !allValid {
		os.Exit(1)
	}
}
