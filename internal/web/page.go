package web

import "html/template"

type pageData struct {
	Title  string
	Width  int
	Height int
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  body { font-family: ui-monospace, monospace; background: #111; color: #ddd; margin: 2rem; }
  #board { background: #fff; width: {{.Width}}px; height: {{.Height}}px; }
  #status { margin-top: 1rem; }
  .err { color: #f66; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<img id="board" src="/board.svg" width="{{.Width}}" height="{{.Height}}" alt="board">
<div id="status">waiting for connections…</div>
<p><a href="/board.svg?download=1">download SVG</a> · <a href="/api/connections">connections</a></p>
<script>
  const img = document.getElementById("board");
  const status = document.getElementById("status");
  const events = new EventSource("/events");
  events.addEventListener("update", (e) => {
    const u = JSON.parse(e.data);
    img.src = "/board.svg?v=" + u.seq;
    let text = u.edges + " connections, " + u.rejected + " rejected";
    if (u.last) {
      text = u.last.first + "-" + u.last.second + " | " + text;
      status.className = u.last.error ? "err" : "";
      if (u.last.error) text += " | " + u.last.error;
    }
    status.textContent = text;
  });
</script>
</body>
</html>
`))
