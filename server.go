package main

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/Zachkp/folio/internal/config"
	"github.com/Zachkp/folio/internal/content"
	"github.com/Zachkp/folio/internal/mail"
	"github.com/Zachkp/folio/internal/store"
	"github.com/Zachkp/folio/internal/views"
)

//go:embed templates/*.html
var templatesFS embed.FS

// sections are the content pages, in page order.
var sections = []string{"about", "skills", "projects", "certificates", "timeline", "contact"}

var sectionTitles = map[string]string{
	"about":        "About",
	"skills":       "Skills",
	"projects":     "Projects",
	"certificates": "Certificates",
	"timeline":     "Experience",
	"contact":      "Contact",
}

type server struct {
	cfg    config.Config
	logger *zap.Logger
	site   *content.Provider
	store  *store.Store
	sender mail.Sender
	admin  *adminAuth
	tmpl   *template.Template
	md     *converter.Converter
	now    func() time.Time
}

func newServer(cfg config.Config, logger *zap.Logger, site *content.Provider, db *store.Store, sender mail.Sender) (*server, error) {
	tmpl, err := template.New("").Funcs(views.FuncMap()).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	admin, err := newAdminAuth(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &server{
		cfg:    cfg,
		logger: logger,
		site:   site,
		store:  db,
		sender: sender,
		admin:  admin,
		tmpl:   tmpl,
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
		now: time.Now,
	}, nil
}

func (s *server) router() *gin.Engine {
	r := gin.New()
	r.Use(requestLogger(s.logger), gin.Recovery())
	r.SetHTMLTemplate(s.tmpl)

	r.Static("/images", s.cfg.ImagesDir)
	r.Static("/static", s.cfg.StaticDir)

	r.Use(s.visitorTracking())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/", s.page(""))
	for _, section := range sections {
		r.GET("/"+section, s.page(section))
	}
	r.GET("/projects/:id", s.projectDetail)
	r.GET("/certificates/:id", s.certificateDetail)

	r.POST("/contact", s.contact)
	r.GET("/contact/vcard.png", s.vcard)
	r.POST("/theme", s.toggleTheme)
	r.GET("/resume.md", s.resume)

	s.setupAdminRoutes(r)
	return r
}

// pageData is what every page template receives.
type pageData struct {
	Title              string
	Section            string
	Theme              views.Theme
	Site               *content.Site
	Category           content.Category
	Projects           []content.Project
	ProjectFilters     []content.Filter
	Certificates       []content.Certificate
	CertificateFilters []content.Filter
	SkillGroups        []content.SkillGroup
	Year               int

	// Set when a detail modal is open on a full page load.
	Project     *content.Project
	Certificate *content.Certificate
}

func (s *server) buildPage(c *gin.Context, section string) pageData {
	site := s.site.Site()
	cat := content.ParseCategory(c.Query("category"))
	theme, _ := c.Cookie(views.ThemeCookie)

	title := site.Profile.Name
	if t, ok := sectionTitles[section]; ok {
		title = t + " | " + site.Profile.Name
	}
	return pageData{
		Title:              title,
		Section:            section,
		Theme:              views.ParseTheme(theme),
		Site:               site,
		Category:           cat,
		Projects:           site.FilterProjects(cat),
		ProjectFilters:     site.ProjectFilters(cat),
		Certificates:       site.FilterCertificates(cat),
		CertificateFilters: site.CertificateFilters(cat),
		SkillGroups:        site.SkillsByCategory(),
		Year:               s.now().Year(),
	}
}

// page renders a full page, or only the section fragment for HTMX requests.
func (s *server) page(section string) gin.HandlerFunc {
	return func(c *gin.Context) {
		data := s.buildPage(c, section)
		if views.IsHTMX(c.Request) {
			name := section
			if name == "" {
				name = "home"
			}
			c.Header("Vary", views.HXRequest)
			c.HTML(http.StatusOK, name, data)
			return
		}
		c.HTML(http.StatusOK, "page.html", data)
	}
}

// projectDetail renders one project as a modal. A full page load shows the
// projects section with the modal open.
func (s *server) projectDetail(c *gin.Context) {
	p, ok := s.site.Site().Project(c.Param("id"))
	if !ok {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}
	if views.IsHTMX(c.Request) {
		c.Header("Vary", views.HXRequest)
		c.HTML(http.StatusOK, "project-modal", p)
		return
	}
	data := s.buildPage(c, "projects")
	data.Title = p.Title + " | " + data.Site.Profile.Name
	data.Project = &p
	c.HTML(http.StatusOK, "page.html", data)
}

// certificateDetail is projectDetail for certificates.
func (s *server) certificateDetail(c *gin.Context) {
	cert, ok := s.site.Site().Certificate(c.Param("id"))
	if !ok {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}
	if views.IsHTMX(c.Request) {
		c.Header("Vary", views.HXRequest)
		c.HTML(http.StatusOK, "certificate-modal", cert)
		return
	}
	data := s.buildPage(c, "certificates")
	data.Title = cert.Title + " | " + data.Site.Profile.Name
	data.Certificate = &cert
	c.HTML(http.StatusOK, "page.html", data)
}

func (s *server) contact(c *gin.Context) {
	msg := mail.Message{
		Name:    c.PostForm("name"),
		Email:   c.PostForm("email"),
		Subject: c.PostForm("subject"),
		Body:    c.PostForm("message"),
	}.Normalize()

	sub := store.Submission{
		ID:        uuid.NewString(),
		Name:      msg.Name,
		Email:     msg.Email,
		Subject:   msg.Subject,
		SentVia:   s.sender.Name(),
		CreatedAt: s.now(),
	}

	if err := msg.Validate(); err != nil {
		var verr *mail.ValidationError
		sub.Status, sub.Error = store.StatusInvalid, err.Error()
		s.recordSubmission(c.Request.Context(), sub)
		if errors.As(err, &verr) {
			views.Render(c, http.StatusUnprocessableEntity, views.ContactInvalid(verr.Fields))
			return
		}
		views.Render(c, http.StatusUnprocessableEntity, views.ContactResult(false))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 20*time.Second)
	defer cancel()
	if err := s.sender.Send(ctx, msg); err != nil {
		s.logger.Error("contact send failed",
			zap.String("id", sub.ID),
			zap.String("provider", sub.SentVia),
			zap.Error(err))
		sub.Status, sub.Error = store.StatusFailed, err.Error()
		s.recordSubmission(c.Request.Context(), sub)
		views.Render(c, http.StatusOK, views.ContactResult(false))
		return
	}

	s.logger.Info("contact message sent", zap.String("id", sub.ID), zap.String("provider", sub.SentVia))
	sub.Status = store.StatusSent
	s.recordSubmission(c.Request.Context(), sub)
	views.Render(c, http.StatusOK, views.ContactResult(true))
}

func (s *server) recordSubmission(ctx context.Context, sub store.Submission) {
	if err := s.store.RecordSubmission(ctx, sub); err != nil {
		s.logger.Warn("record submission", zap.String("id", sub.ID), zap.Error(err))
	}
}

func (s *server) toggleTheme(c *gin.Context) {
	current, _ := c.Cookie(views.ThemeCookie)
	next := views.ParseTheme(current).Toggle()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(views.ThemeCookie, string(next), 3600*24*365, "/", "", false, false)
	c.Header("HX-Trigger", "theme-changed")
	views.Render(c, http.StatusOK, views.ThemeToggle(next))
}

// vcard renders the profile as a QR-encoded vCard.
func (s *server) vcard(c *gin.Context) {
	png, err := qrcode.Encode(vCard(s.site.Site().Profile, s.cfg.BaseURL), qrcode.Medium, 256)
	if err != nil {
		s.logger.Error("encode vcard", zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "image/png", png)
}

func vCard(p content.Profile, url string) string {
	esc := strings.NewReplacer(`\`, `\\`, ",", `\,`, ";", `\;`, "\n", `\n`)
	lines := []string{
		"BEGIN:VCARD",
		"VERSION:3.0",
		"FN:" + esc.Replace(p.Name),
		"TITLE:" + esc.Replace(p.Headline),
		"EMAIL:" + p.Email,
	}
	if p.Phone != "" && !strings.Contains(p.Phone, "X") {
		lines = append(lines, "TEL:"+p.Phone)
	}
	if url != "" {
		lines = append(lines, "URL:"+url)
	}
	lines = append(lines, "END:VCARD")
	return strings.Join(lines, "\r\n")
}

// resume exports the home page content as Markdown.
func (s *server) resume(c *gin.Context) {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, "home", s.buildPage(c, "")); err != nil {
		s.logger.Error("render resume", zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	md, err := s.md.ConvertString(buf.String())
	if err != nil {
		s.logger.Error("convert resume", zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Header("Content-Disposition", "inline; filename=resume.md")
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(md))
}

// requestLogger logs one line per request.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.Bool("htmx", views.IsHTMX(c.Request)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			logger.Error("request", fields...)
		default:
			logger.Debug("request", fields...)
		}
	}
}
