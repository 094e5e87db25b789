package server

import (
	"bytes"
	"html/template"
	"net/http"
	"time"

	"JNChoral/core/auth"
	"JNChoral/logger"
	"JNChoral/model"
)

var statusPage = template.Must(template.New("status").Funcs(template.FuncMap{
	"badge": badgeClass,
	"date":  func(t time.Time) string { return t.UTC().Format("2 Jan 2006, 15:04 UTC") },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Audition Status | {{.OrgName}}</title>
<style>
body{margin:0;background:#000;color:#fff;font-family:system-ui,sans-serif}
main{max-width:64rem;margin:0 auto;padding:4rem 1.5rem}
.card{border:1px solid rgba(255,255,255,.1);border-radius:1rem;background:rgba(0,0,0,.3);padding:1.25rem;margin-top:1rem}
.badge{display:inline-block;border:1px solid;border-radius:999px;padding:.25rem .75rem;font-size:.75rem;font-weight:600}
.badge-accepted{color:#a7f3d0;border-color:rgba(52,211,153,.4)}
.badge-rejected{color:#fecaca;border-color:rgba(248,113,113,.4)}
.badge-shortlisted{color:#fde68a;border-color:rgba(252,211,77,.4)}
.badge-pending{color:rgba(255,255,255,.8);border-color:rgba(255,255,255,.15)}
.muted{color:rgba(255,255,255,.6);font-size:.875rem}
a{color:#edb840}
</style>
</head>
<body>
<main>
<p class="muted">AUDITIONS</p>
<h1>Application status</h1>
<p class="muted">Track the progress of your audition application(s). We will also contact you directly when a decision is made.</p>
<p class="muted">Signed in as {{.SignedInAs}}</p>
{{range .Applications}}
<div class="card">
<strong>{{.FullName}}</strong> <span class="badge {{badge .Status}}">{{.Status}}</span>
<p class="muted">{{date .CreatedAt}}</p>
<p class="muted">Category: {{.Category}} &middot; Phone: {{.Phone}} &middot; Email: {{.Email}}</p>
{{if eq .Status "ACCEPTED"}}<a href="/auditions/status/{{.ID}}/download">Download confirmation</a>{{end}}
</div>
{{else}}
<div class="card muted">No applications yet. Submit an audition to see your status here.</div>
{{end}}
</main>
</body>
</html>
`))

func badgeClass(status model.AuditionStatus) string {
	switch status {
	case model.StatusAccepted:
		return "badge-accepted"
	case model.StatusRejected:
		return "badge-rejected"
	case model.StatusShortlisted:
		return "badge-shortlisted"
	default:
		return "badge-pending"
	}
}

// StatusPage 申请人查看自己的申请状态
func (h *Handler) StatusPage(w http.ResponseWriter, r *http.Request) {
	p := auth.FromContext(r.Context())
	apps, err := h.auditions.ListOwned(r.Context(), p)
	if err != nil {
		logger.Error("加载申请状态失败", logger.String("userId", p.ID), logger.ErrorField(err))
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}

	signedInAs := p.Email
	if signedInAs == "" {
		signedInAs = p.Name
	}

	var buf bytes.Buffer
	err = statusPage.Execute(&buf, struct {
		OrgName      string
		SignedInAs   string
		Applications []model.AuditionApplication
	}{h.cfg.OrgName, signedInAs, apps})
	if err != nil {
		logger.Error("渲染申请状态页失败", logger.ErrorField(err))
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := buf.WriteTo(w); err != nil {
		logger.Error("写入申请状态页失败", logger.ErrorField(err))
	}
}
