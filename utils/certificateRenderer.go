package utils

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"sdssn/models"
)

var certificateTemplate = template.Must(template.New("certificate").Parse(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<title>{{.Certification}} - {{.SerialNo}}</title>
	<style>
		body { font-family: Georgia, 'Times New Roman', serif; background: #FFFFFF; margin: 0; }
		.frame { width: 1000px; margin: 30px auto; padding: 50px; border: 12px double #0B3D2E; text-align: center; color: #0B3D2E; }
		.title { font-size: 40px; letter-spacing: 3px; margin-bottom: 10px; }
		.name { font-size: 34px; font-style: italic; border-bottom: 1px solid #0B3D2E; display: inline-block; padding: 0 40px; }
		.meta { margin-top: 30px; font-size: 14px; }
		.signatures { display: flex; justify-content: space-between; margin-top: 60px; }
		.signature img { height: 60px; }
		.qr { margin-top: 20px; font-size: 12px; word-break: break-all; }
	</style>
</head>
<body>
	<div class="frame">
		<div class="title">CERTIFICATE OF MEMBERSHIP</div>
		<p>This is to certify that</p>
		<div class="name">{{.FullName}}</div>
		<p>has been admitted as a certified member under</p>
		<h2>{{.Certification}}</h2>
		<div class="meta">
			<div>Serial No: <strong>{{.SerialNo}}</strong></div>
			<div>Membership Code: <strong>{{.MembershipCode}}</strong></div>
			<div>Issued On: {{.IssuedOn}} &middot; Expires On: {{.ExpiresOn}}</div>
		</div>
		<div class="signatures">
			{{range .Signatures}}
			<div class="signature">
				{{if .ImageURL}}<img src="{{.ImageURL}}" alt="{{.Name}}">{{end}}
				<div>{{.Name}}</div>
				<div>{{.Title}}</div>
			</div>
			{{end}}
		</div>
		<div class="qr">Verify at {{.VerifyURL}}</div>
	</div>
</body>
</html>
`))

type certificateSignature struct {
	Name     string
	Title    string
	ImageURL string
}

type certificateView struct {
	FullName       string
	Certification  string
	SerialNo       string
	MembershipCode string
	IssuedOn       string
	ExpiresOn      string
	VerifyURL      string
	Signatures     []certificateSignature
}

// HTMLCertificateRenderer renders a membership to a standalone HTML page.
type HTMLCertificateRenderer struct{}

func (HTMLCertificateRenderer) Render(m *models.Membership) (string, []byte, error) {
	view := certificateView{
		FullName:       m.FullName,
		SerialNo:       m.SerialNo,
		MembershipCode: m.MembershipCode,
		IssuedOn:       time.Time(m.IssuedOn).Format("02 January 2006"),
		ExpiresOn:      time.Time(m.ExpiresOn).Format("02 January 2006"),
		VerifyURL:      m.QRCode,
	}
	if req := m.CertificationRequest; req != nil && req.Certification != nil {
		view.Certification = req.Certification.Name
		for _, sig := range []*models.Signature{req.Certification.ManagementSignature, req.Certification.SecretarySignature} {
			if sig == nil {
				continue
			}
			s := certificateSignature{Name: sig.Name, Title: sig.Title}
			if sig.Image != nil {
				s.ImageURL = sig.Image.URL
			}
			view.Signatures = append(view.Signatures, s)
		}
	}

	var buf bytes.Buffer
	if err := certificateTemplate.Execute(&buf, view); err != nil {
		return "", nil, fmt.Errorf("render certificate %s: %w", m.SerialNo, err)
	}
	return m.SerialNo + ".html", buf.Bytes(), nil
}
