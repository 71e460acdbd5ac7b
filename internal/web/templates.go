package web

// ── Base layout ───────────────────────────────────────────────────────────────

const tmplBase = `
{{define "base"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
{{if .RefreshSeconds}}<meta http-equiv="refresh" content="{{.RefreshSeconds}}">{{end}}
<title>{{.Title}}</title>
<style>
*{box-sizing:border-box;margin:0;padding:0}
body{font-family:'JetBrains Mono',monospace,sans-serif;background:#0d1117;color:#c9d1d9;font-size:13px;line-height:1.5}
a{color:#58a6ff;text-decoration:none}
a:hover{text-decoration:underline}
nav{background:#161b22;border-bottom:1px solid #30363d;padding:8px 16px;display:flex;gap:16px;align-items:center}
nav .brand{color:#f0f6fc;font-weight:700;font-size:15px;margin-right:8px}
nav .updated{margin-left:auto;font-size:11px;color:#8b949e}
main{padding:16px}
.dim{color:#8b949e}
.err{color:#f87171}
.section{background:#161b22;border:1px solid #30363d;border-radius:6px;margin-bottom:16px;overflow:hidden}
.section-hdr{padding:8px 12px;border-bottom:1px solid #30363d;font-size:11px;font-weight:600;color:#8b949e;text-transform:uppercase;letter-spacing:.05em;background:#0d1117}
pre{white-space:pre-wrap;word-break:break-all;font-family:monospace;font-size:11px;color:#c9d1d9;padding:8px 12px}
.filters{display:flex;gap:8px;align-items:center;margin-bottom:12px;background:#161b22;padding:8px 12px;border-radius:6px;border:1px solid #30363d}
.filters input{background:#0d1117;border:1px solid #30363d;color:#c9d1d9;border-radius:4px;padding:3px 6px;font-size:12px;font-family:inherit;flex:1}
.filters button{background:#1f6feb;border:none;color:#fff;padding:4px 12px;border-radius:4px;cursor:pointer;font-size:12px}
.tl-row{display:flex;align-items:center;height:32px;border-bottom:1px solid #0d1117;font-size:12px}
.tl-row:hover{background:#21262d}
.tl-label{flex-shrink:0;overflow:hidden;text-overflow:ellipsis;white-space:nowrap;padding:0 8px}
.tl-bar-area{flex:1;position:relative;height:16px;border-left:1px solid #30363d}
.tl-bar{position:absolute;height:14px;border-radius:3px;top:1px;font-size:10px;line-height:14px;text-align:center;color:#0d1117;font-weight:600;min-width:4px}
.count{color:#8b949e;font-size:11px;margin-left:4px}
</style>
</head>
<body>
<nav>
  <span class="brand">{{.Title}}</span>
  {{if not .LastFetched.IsZero}}<span class="updated">updated {{fmtTime .LastFetched}}</span>{{end}}
</nav>
<main>
{{template "content" .}}
</main>
</body>
</html>{{end}}
`

// ── Overview ──────────────────────────────────────────────────────────────────

const tmplLoading = `
{{define "content"}}
<div class="section"><div class="section-hdr">Loading…</div></div>
{{end}}
`

const tmplTransportError = `
{{define "content"}}
<div class="section">
<div class="section-hdr err">Could not load assets</div>
<pre>{{.Err}}</pre>
</div>
{{end}}
`

const tmplPythonError = `
{{define "content"}}
<div class="section">
<div class="section-hdr err">{{.PythonError.Error}}</div>
<pre>{{range .PythonError.Stack}}{{.}}{{end}}</pre>
</div>
{{end}}
`

const tmplOverview = `
{{define "content"}}
<form class="filters" method="get" action="/">
  <input type="search" name="q" value="{{.Search}}" placeholder="Filter by asset key, group or code location">
  {{range .Open}}<input type="hidden" name="open" value="{{.}}">{{end}}
  <button type="submit">Filter</button>
  <a href="{{.ExpandAllHref}}">expand all</a>
  <a href="{{.CollapseAllHref}}">collapse all</a>
</form>
{{if .RefreshErr}}<p class="err" style="margin-bottom:12px">Refresh failed: {{.RefreshErr}}</p>{{end}}
<div class="section">
<div class="section-hdr">{{.Counts.Locations}} locations · {{.Counts.Groups}} groups · {{.Counts.Assets}} assets · runs {{fmtTime .WinStart}} → {{fmtTime .WinEnd}}</div>
{{range .Rows}}
<div class="tl-row">
  <div class="tl-label" style="width:{{$.SidebarWidth}}px;padding-left:{{indent .Level}}px">
    {{if .Href}}<a href="{{.Href}}">{{if .Open}}▾{{else}}▸{{end}} {{.Label}}</a><span class="count">{{.ChildCount}}</span>
    {{else}}{{.Label}}{{end}}
  </div>
  <div class="tl-bar-area">
    {{range .Batches}}<div class="tl-bar" title="{{.Title}}" style="left:{{.LeftPct}}%;width:{{.WidthPct}}%;background:{{.Background}}">{{if .Count}}{{.Count}}{{end}}</div>{{end}}
  </div>
</div>
{{else}}
<pre class="dim">{{if .Search}}No assets match "{{.Search}}".{{else}}No assets found.{{end}}</pre>
{{end}}
</div>
{{end}}
`
