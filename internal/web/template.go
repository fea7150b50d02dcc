package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/counterwatch/internal/logic"
	"github.com/sweeney/counterwatch/internal/status"
)

var funcs = template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"labelOrUnknown": func(s string) string {
		if s == "" {
			return "UNKNOWN"
		}
		return s
	},
	"active": func(s logic.State) bool {
		return s == logic.StateActive
	},
}

var indexTmpl = template.Must(template.New("index").Funcs(funcs).Parse(indexHTML))

var calibrateTmpl = template.Must(template.New("calibrate").Parse(calibrateHTML))

const style = `
body { font-family: monospace; max-width: 720px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.active { color: red; font-weight: bold; }
.inactive { color: green; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
img.snapshot { max-width: 100%; border: 1px solid #ddd; }
`

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Counterwatch</title>
<style>` + style + `</style>
</head>
<body>
<h1>Counterwatch{{if .Live}}<span id="live-dot" class="live-dot pending" title="connecting"></span>{{end}}</h1>

<h2>Monitors</h2>
<table>
<tr><th>Monitor</th><td>State</td><td>Streak (enter/exit)</td><td>Events (enter/exit)</td></tr>
{{range .Monitors}}<tr>
<th>{{.Name}}</th>
<td id="state-{{.Name}}" class="{{if active .State}}active{{else if .Label}}inactive{{else}}unknown{{end}}">{{labelOrUnknown .Label}}</td>
<td>{{.EnterStreak}}/{{.ExitStreak}}</td>
<td>{{.Counts.Enter}}/{{.Counts.Exit}}</td>
</tr>
{{else}}<tr><td colspan="4">no frames processed yet</td></tr>
{{end}}</table>

<h2>Pipeline</h2>
<table>
<tr><th>Alarm</th><td class="{{if .AlarmOn}}active{{else}}inactive{{end}}">{{if .AlarmOn}}on{{else}}off{{end}}</td></tr>
<tr><th>Frames processed</th><td>{{.FramesProcessed}}</td></tr>
<tr><th>Last frame</th><td>{{.LastFrame}}</td></tr>
<tr><th>Read errors</th><td>{{.ReadErrors}}</td></tr>
<tr><th>Probe errors</th><td>{{.ProbeErrors}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Source</th><td>{{.Config.Source}}</td></tr>
<tr><th>Interval</th><td>{{.Config.IntervalMs}}ms</td></tr>
<tr><th>On read failure</th><td>{{.Config.ReadPolicy}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
{{if .Host}}<tr><th>Host</th><td>{{.Host.Hostname}}</td></tr>
<tr><th>CPU</th><td>{{printf "%.1f" .Host.CPUPercent}}%</td></tr>
<tr><th>Memory</th><td>{{printf "%.1f" .Host.MemUsedPct}}%</td></tr>
<tr><th>Load</th><td>{{printf "%.2f" .Host.Load1}}</td></tr>{{end}}
</table>

{{if .ShowSnapshot}}<p><img class="snapshot" id="snapshot" src="/snapshot.jpg" alt="latest frame"></p>{{end}}
<p><a href="/index.json">JSON</a> | <a href="/calibrate">Calibrate</a> | <a href="/metrics">Metrics</a></p>
{{if .Live}}
<script>
(function() {
  var dot = document.getElementById("live-dot");
  var img = document.getElementById("snapshot");

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }

  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var sock = new WebSocket(proto + location.host + "/ws");
    sock.onopen = function() { setDot("ok", "live"); };
    sock.onclose = function() {
      setDot("err", "offline");
      setTimeout(connect, 5000);
    };
    sock.onmessage = function(e) {
      try {
        var msg = JSON.parse(e.data);
        if (msg.type !== "transition") return;
        var el = document.getElementById("state-" + msg.monitor);
        if (el) {
          el.textContent = msg.to;
          el.className = msg.active ? "active" : "inactive";
        }
        if (img) img.src = "/snapshot.jpg?f=" + msg.frame;
      } catch (err) {}
    };
  }
  connect();
})();
</script>
{{end}}
</body>
</html>
`

const calibrateHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Counterwatch calibration</title>
<style>` + style + `
canvas { max-width: 100%; border: 1px solid #ddd; cursor: crosshair; }
video { max-width: 100%; }
</style>
</head>
<body>
<h1>Drawer calibration</h1>
<p>Load a clip, pause on a frame that shows the closed drawer, capture it, then drag a box around the drawer.</p>
<p><input type="file" id="file" accept="video/*"></p>
<p><video id="video" controls></video></p>
<p><button id="capture">Capture frame</button> <button id="upload" disabled>Use selection</button> <button id="save" disabled>Save</button></p>
<p id="msg"></p>
<canvas id="canvas"></canvas>
<p><a href="/">Status</a> | <a href="/calibration.json">Saved calibration</a></p>
<script>
(function() {
  var video = document.getElementById("video");
  var canvas = document.getElementById("canvas");
  var ctx = canvas.getContext("2d");
  var msg = document.getElementById("msg");
  var frame = null, roi = null, start = null;

  document.getElementById("file").onchange = function(e) {
    if (e.target.files.length) video.src = URL.createObjectURL(e.target.files[0]);
  };

  function redraw() {
    if (!frame) return;
    var img = new Image();
    img.onload = function() {
      ctx.drawImage(img, 0, 0);
      if (roi) {
        ctx.strokeStyle = "lime";
        ctx.lineWidth = 2;
        ctx.strokeRect(roi.x, roi.y, roi.width, roi.height);
      }
    };
    img.src = frame;
  }

  function point(e) {
    var r = canvas.getBoundingClientRect();
    return {
      x: Math.round((e.clientX - r.left) * canvas.width / r.width),
      y: Math.round((e.clientY - r.top) * canvas.height / r.height)
    };
  }

  document.getElementById("capture").onclick = function() {
    canvas.width = video.videoWidth;
    canvas.height = video.videoHeight;
    ctx.drawImage(video, 0, 0);
    frame = canvas.toDataURL("image/jpeg");
    roi = null;
    msg.textContent = "drag a box around the drawer";
  };

  canvas.onmousedown = function(e) { start = point(e); };
  canvas.onmouseup = function(e) {
    if (!start) return;
    var p = point(e);
    roi = {
      x: Math.min(start.x, p.x), y: Math.min(start.y, p.y),
      width: Math.abs(p.x - start.x), height: Math.abs(p.y - start.y)
    };
    start = null;
    document.getElementById("upload").disabled = false;
    redraw();
  };

  function post(url, body) {
    return fetch(url, {
      method: "POST",
      headers: { "Content-Type": "application/json" },
      credentials: "same-origin",
      body: body ? JSON.stringify(body) : "{}"
    }).then(function(r) { return r.json(); });
  }

  document.getElementById("upload").onclick = function() {
    post("/upload-frame", { frame: frame, roi: roi }).then(function(res) {
      msg.textContent = res.status;
      document.getElementById("save").disabled = res.status !== "ready";
    });
  };

  document.getElementById("save").onclick = function() {
    post("/save-coordinates").then(function(res) {
      msg.textContent = res.status;
    });
  };
})();
</script>
</body>
</html>
`

type indexData struct {
	status.Snapshot
	Uptime       time.Duration
	Live         bool
	ShowSnapshot bool
}

func renderIndex(w io.Writer, snap status.Snapshot, live, snapshot bool) {
	indexTmpl.Execute(w, indexData{
		Snapshot:     snap,
		Uptime:       snap.Uptime(),
		Live:         live,
		ShowSnapshot: snapshot,
	})
}

func renderCalibrate(w io.Writer) {
	calibrateTmpl.Execute(w, nil)
}
