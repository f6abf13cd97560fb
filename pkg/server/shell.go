package server

import "html/template"

// shellData fills the HTML shell.
type shellData struct {
	Title        string
	Mode         string
	Main         template.HTML
	Sidebar      template.HTML
	SidebarStyle template.CSS
	CSRFToken    string
}

// shellTemplate is the page shell. The client runtime is intentionally
// dumb: it replaces DOM subtrees by id on "update" messages and executes
// "eval" payloads; in lite mode htmx applies the response body and its
// out-of-band fragments.
var shellTemplate = template.Must(template.New("shell").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<script>
window._mode = {{.Mode}};
window._csrf_token = {{.CSRFToken}};
</script>
{{if eq .Mode "lite"}}<script src="https://unpkg.com/htmx.org@1.9.10"></script>
<script>
document.addEventListener('htmx:configRequest', function(e) {
  e.detail.parameters['_csrf_token'] = window._csrf_token;
});
</script>{{end}}
<style>
body { margin: 0; font-family: sans-serif; min-height: 100vh; }
#root { display: flex; width: 100%; min-height: 100vh; }
#sidebar { width: 300px; border-right: 1px solid #ddd; padding: 2rem 1rem; flex-shrink: 0; {{.SidebarStyle}} }
#main { flex: 1; padding: 1.5rem; }
.fragment { display: flex; flex-direction: column; gap: 1rem; }
</style>
</head>
<body>
<div id="root">
  <div id="sidebar">{{.Sidebar}}</div>
  <div id="main"><div id="app">{{.Main}}</div></div>
</div>
{{if eq .Mode "ws"}}<script>
(function() {
  var proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
  var ws;

  function connect() {
    ws = new WebSocket(proto + location.host + '/ws');
    ws.onmessage = function(ev) {
      var msg = JSON.parse(ev.data);
      if (msg.type === 'update') {
        msg.payload.forEach(function(u) {
          var el = document.getElementById(u.id);
          if (el) { el.outerHTML = u.html; }
        });
      } else if (msg.type === 'eval') {
        new Function(msg.code)();
      }
    };
    ws.onclose = function() { setTimeout(connect, 1000); };
  }

  window.sendAction = function(id, value) {
    if (!ws || ws.readyState !== WebSocket.OPEN) { return; }
    ws.send(JSON.stringify({
      type: 'click',
      id: id,
      value: value === undefined ? null : value,
      _csrf_token: window._csrf_token
    }));
  };

  connect();
})();
</script>{{end}}
</body>
</html>
`))
