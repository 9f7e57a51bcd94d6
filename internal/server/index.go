package server

// indexHTML is the dashboard page. It polls the JSON API and refreshes on
// websocket scan events.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>easyip dashboard</title>
<style>
body { font-family: sans-serif; margin: 2em; background: #f6f7f9; color: #222; }
table { border-collapse: collapse; width: 100%; background: #fff; }
th, td { padding: 6px 10px; border-bottom: 1px solid #ddd; text-align: left; }
th { background: #2c3e50; color: #fff; }
.Active { color: #1e8449; } .IP.Changed { color: #b9770e; }
.Offline { color: #7f8c8d; } .MISSING { color: #c0392b; font-weight: bold; }
#conflicts { color: #c0392b; }
button { margin-right: 1em; }
</style>
</head>
<body>
<h1>i-PRO devices</h1>
<p id="stats">Loading...</p>
<p>
  <button onclick="scan()">Scan now</button>
  <label><input type="checkbox" id="auto" onchange="toggleAuto()"> Auto-scan</label>
  <a href="/api/export">Export</a>
</p>
<p id="conflicts"></p>
<table>
<thead><tr><th>Status</th><th>Type</th><th>Name</th><th>IP</th><th>MAC</th><th>Model</th><th>Serial</th><th>Firmware</th><th>Last seen</th></tr></thead>
<tbody id="devices"></tbody>
</table>
<script>
function esc(s) { return String(s ?? "").replace(/[&<>"]/g, c => ({"&":"&amp;","<":"&lt;",">":"&gt;","\"":"&quot;"}[c])); }
async function load() {
  const [devices, stats, conflicts] = await Promise.all(
    ["/api/devices?sort=ip", "/api/stats", "/api/conflicts"].map(u => fetch(u).then(r => r.json())));
  document.getElementById("stats").textContent =
    stats.total + " devices: " + stats.active + " active, " + stats.ip_changed + " IP changed, " +
    stats.offline + " offline, " + stats.missing + " missing" + (stats.scan_running ? " (scanning...)" : "");
  document.getElementById("auto").checked = stats.auto_scan;
  document.getElementById("conflicts").textContent = conflicts.length
    ? "IP conflicts: " + conflicts.map(c => c.ip + " (" + c.devices.join(", ") + ")").join("; ") : "";
  document.getElementById("devices").innerHTML = devices.map(d =>
    "<tr><td class=\"" + esc(d.status) + "\">" + esc(d.status) + "</td><td>" + esc(d.device_type) +
    "</td><td>" + esc(d.device_name) + "</td><td><a href=\"http://" + esc(d.current_ip) + ":" + d.current_port + "/\">" +
    esc(d.current_ip) + "</a></td><td>" + esc(d.mac_address) + "</td><td>" + esc(d.model_name) +
    "</td><td>" + esc(d.serial_number) + "</td><td>" + esc(d.firmware_version) + "</td><td>" +
    esc(new Date(d.last_seen).toLocaleString()) + "</td></tr>").join("");
}
function scan() { fetch("/api/scan", {method: "POST"}); }
function toggleAuto() {
  fetch("/api/auto-scan", {method: "POST", headers: {"Content-Type": "application/json"},
    body: JSON.stringify({enabled: document.getElementById("auto").checked})});
}
const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
ws.onmessage = () => load();
load();
</script>
</body>
</html>
`
