package datagrid

import (
	"fmt"
	"html/template"
	"io"
	"strings"
)

// stateScript declares the client state and the tbl* helpers. updateTable
// is defined separately, either as a page reload or an AJAX refresh.
const stateScript = `<script type="text/javascript">
var params = ''; var tblpage = '%s'; var tblorder = '%s'; var tblfilter = '%s';
function tblSetPage(page) { tblpage = page; params = '&page=' + page + '&order=' + encodeURIComponent(tblorder) + '&filter=' + encodeURIComponent(tblfilter); updateTable(); }
function tblSetOrder(column, order) { tblorder = column + ':' + order; params = '&page=' + tblpage + '&order=' + encodeURIComponent(tblorder) + '&filter=' + encodeURIComponent(tblfilter); updateTable(); }
function tblSetFilter(column) { var val = document.getElementById('filter-value-' + column).value; tblfilter = column + ':' + val; tblpage = 1; params = '&page=1&order=' + encodeURIComponent(tblorder) + '&filter=' + encodeURIComponent(tblfilter); updateTable(); }
function tblClearFilter() { tblfilter = ''; params = '&page=1&order=' + encodeURIComponent(tblorder) + '&filter='; updateTable(); }
function tblToggleCheckAll() { var boxes = document.querySelectorAll('#dg .tbl-checkbox'); for (var i = 0; i < boxes.length; i++) { boxes[i].checked = !boxes[i].checked; } }
function tblShowHideFilter(column) { var o = document.getElementById('filter-' + column); if (o.style.display == 'block') { tblClearFilter(); } else { o.style.display = 'block'; } }
function tblReset() { params = '&page=1'; updateTable(); }
</script>
`

const reloadScript = `<script type="text/javascript">function updateTable() { window.location = '?' + params.substring(1); }</script>
`

const ajaxScript = `<script type="text/javascript">
function updateTable() {
var xhr = new XMLHttpRequest();
xhr.onreadystatechange = function() { if (xhr.readyState == 4) { document.getElementById('eyedatagrid').innerHTML = xhr.responseText; } };
xhr.open('GET', '%s' + params, true);
xhr.send(null);
}
</script>
<div id="eyedatagrid"></div>
<script type="text/javascript">updateTable();</script>
`

func writeStateScript(w io.Writer, st State) {
	var order, filter string
	if st.Sort != nil {
		order = st.Sort.Column + ":" + string(st.Sort.Direction)
	}
	if st.Filter != nil {
		filter = st.Filter.Column + ":" + st.Filter.Value
	}
	fmt.Fprintf(w, stateScript, fmt.Sprint(st.Page),
		template.JSEscapeString(order), template.JSEscapeString(filter))
}

// WriteAjaxBootstrap writes the client helpers and an empty container that
// is filled from endpoint with useajax=true on load and on every state change.
func WriteAjaxBootstrap(w io.Writer, endpoint string) error {
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	var b strings.Builder
	writeStateScript(&b, State{Page: 1})
	fmt.Fprintf(&b, ajaxScript, template.JSEscapeString(endpoint+sep+"useajax=true"))
	_, err := io.WriteString(w, b.String())
	return err
}
