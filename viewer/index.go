package viewer

import "html/template"

var indexHTML = template.Must(template.New("index").Parse(`<!doctype html>
<html>
<head>
<meta charset=utf-8>
<meta name=viewport content="width=device-width, initial-scale=1.0">
<title>Remote Control</title>
<style>
  body { padding: 20px; max-width: 1200px; margin: 0 auto; font-family: sans-serif; }
  .screen { border: 1px solid #ccc; border-radius: 8px; padding: 10px; margin-bottom: 20px; }
  .screen img { width: 100%; display: block; image-rendering: pixelated; }
  .buttons { display: flex; gap: 10px; margin-bottom: 20px; }
  .buttons button { padding: 8px 16px; background: #007bff; color: white; border: none; border-radius: 4px; cursor: pointer; }
  .keyboard { border: 1px solid #ccc; border-radius: 8px; padding: 15px; display: none; grid-template-columns: repeat(3, 1fr); gap: 8px; }
  .keyboard.shown { display: grid; }
  .keyboard button { padding: 8px; background: #f0f0f0; border: 1px solid #ccc; border-radius: 4px; cursor: pointer; }
</style>
</head>
<body onload="main();">
<div class="screen">
  <img id="screen" alt="Remote Screen" draggable="false" hidden>
</div>
<div class="buttons">
  <button onclick="click_('left')">Left Click</button>
  <button onclick="click_('right')">Right Click</button>
  <button id="toggle" onclick="toggleKeyboard()">Show Keyboard</button>
</div>
<div class="keyboard" id="keyboard">
{{- range .Keys}}
  <button onclick="key('{{.}}')">{{.}}</button>
{{- end}}
</div>

<script>
  var screen_ = null;
  var seq = 0;

  function rect() {
    var r = screen_.getBoundingClientRect();
    return {left: r.left, top: r.top, width: r.width, height: r.height};
  }

  function post(path, body) {
    fetch(path, {
      method: "POST",
      headers: {"Content-Type": "application/json"},
      body: JSON.stringify(body)
    }).catch(console.error);
  }

  function click_(button) {
    if (screen_.hidden) { return; }
    post("/click", {button: button, rect: rect()});
  }

  function key(k) {
    post("/key", {key: k});
  }

  function toggleKeyboard() {
    var kb = document.getElementById("keyboard");
    var shown = kb.classList.toggle("shown");
    document.getElementById("toggle").textContent = shown ? "Hide Keyboard" : "Show Keyboard";
  }

  async function refresh() {
    try {
      var resp = await fetch("/frame", {cache: "no-store"});
      if (resp.status == 200) {
        var frame = await resp.json();
        if (frame.seq != seq) {
          seq = frame.seq;
          screen_.src = frame.src;
          screen_.hidden = false;
        }
      }
    } catch (e) {
      console.error(e);
    }
    requestAnimationFrame(refresh);
  }

  function main() {
    screen_ = document.getElementById("screen");
    screen_.onmousemove = function(ev) {
      post("/move", {clientX: ev.clientX, clientY: ev.clientY, rect: rect()});
    };
    requestAnimationFrame(refresh);
  }
</script>
</body>
</html>
`))
