package ui

const pageCSS = `
body { font-family: system-ui, sans-serif; margin: 0; color: #1e293b; background: #f8fafc; }
header { padding: 12px 20px; border-bottom: 1px solid #e2e8f0; background: #fff; }
header h1 { margin: 0; font-size: 18px; }
header p { margin: 4px 0 0; color: #64748b; font-size: 13px; }
main { display: grid; grid-template-columns: 1fr 1fr; gap: 16px; padding: 16px 20px; }
textarea { width: 100%; min-height: 70vh; font-family: ui-monospace, monospace; font-size: 13px; box-sizing: border-box; }
.actions { margin-top: 8px; display: flex; gap: 8px; }
.status { color: #64748b; font-size: 13px; margin-bottom: 8px; }
.output { min-height: 200px; padding: 16px; background: #fff; border: 1px solid #e2e8f0; border-radius: 4px; }
.output.failed { border-color: #ef4444; }
.error { color: #b91c1c; white-space: pre-wrap; margin: 0; }
.placeholder { color: #94a3b8; }
.console { font-family: ui-monospace, monospace; font-size: 12px; list-style: none; padding: 0; }
.console-warn { color: #b45309; }
.console-error { color: #b91c1c; }
`

// pageScript upgrades the form to the WebSocket channel when available and
// applies snapshots pushed by the server. Markup in snapshots is sanitized
// server side.
const pageScript = `
(function () {
  var form = document.getElementById("run-form");
  var source = document.getElementById("source");
  var output = document.getElementById("output");
  var status = document.getElementById("status");
  var consoleList = document.getElementById("console");
  var socket = null;

  function apply(snap) {
    output.className = "output " + snap.status;
    output.setAttribute("data-status", snap.status);
    if (snap.status === "rendered") {
      output.innerHTML = snap.html || "";
      status.textContent = "Rendered (run " + snap.runs + ")";
    } else if (snap.status === "failed") {
      var pre = document.createElement("pre");
      pre.className = "error";
      pre.setAttribute("data-kind", snap.error.kind);
      pre.textContent = "Error: " + snap.error.message;
      output.replaceChildren(pre);
      status.textContent = snap.error.kind + " (run " + snap.runs + ")";
    }
    consoleList.replaceChildren();
    (snap.console || []).forEach(function (entry) {
      var li = document.createElement("li");
      li.className = "console-" + entry.level;
      li.textContent = entry.message;
      consoleList.appendChild(li);
    });
    if (document.activeElement !== source && typeof snap.source === "string" && snap.source !== source.value) {
      source.value = snap.source;
    }
  }

  function connect() {
    var proto = location.protocol === "https:" ? "wss:" : "ws:";
    socket = new WebSocket(proto + "//" + location.host + "/ws");
    socket.onmessage = function (event) {
      var msg = JSON.parse(event.data);
      if (msg.type === "snapshot" && msg.payload) {
        apply(msg.payload);
      } else if (msg.type === "error") {
        status.textContent = msg.error;
      }
    };
    socket.onclose = function () {
      socket = null;
      setTimeout(connect, 1000);
    };
  }

  form.addEventListener("submit", function (event) {
    if (!socket || socket.readyState !== WebSocket.OPEN) {
      return;
    }
    if (event.submitter && event.submitter.id === "reset") {
      return;
    }
    event.preventDefault();
    socket.send(JSON.stringify({ type: "run", source: source.value }));
  });

  connect();
})();
`
