// Package server implements the notification endpoint that turns reminder
// batches into emails.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"remind/internal/logger"
	"remind/internal/mailer"
	"remind/internal/reconciliation"
	"remind/internal/reminder"
)

// Options configures the endpoint.
type Options struct {
	// Template renders items that arrive without a message.
	Template string
	// Subject is rendered with the same placeholders as Template.
	Subject string
	// Token, when set, must be presented as a bearer token.
	Token string
}

// Server handles POST /api/send.
type Server struct {
	opts   Options
	mailer mailer.Mailer
	dedupe Deduper
	log    zerolog.Logger
}

// New creates a server. dedupe may be nil.
func New(opts Options, m mailer.Mailer, dedupe Deduper) *Server {
	if opts.Template == "" {
		opts.Template = reminder.DefaultTemplate
	}
	if opts.Subject == "" {
		opts.Subject = "Payment reminder: invoice {{invoice}}"
	}
	return &Server{
		opts:   opts,
		mailer: m,
		dedupe: dedupe,
		log:    logger.WithComponent("server"),
	}
}

// Router builds the gin engine.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	if s.opts.Token != "" {
		api.Use(s.requireToken())
	}
	api.POST("/send", s.handleSend)

	return r
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	const op = "Run"

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("Notification endpoint listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info().Msg("Shutting down notification endpoint")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: shutdown: %w", op, err)
		}
		return nil
	}
}

// POST /api/send
// Mail one reminder per item
func (s *Server) handleSend(c *gin.Context) {
	var req reminder.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, reminder.Response{Error: fmt.Sprintf("invalid request: %v", err)})
		return
	}

	items := req.Items
	if len(items) > reminder.MaxItems {
		s.log.Warn().
			Int("items", len(items)).
			Int("max_items", reminder.MaxItems).
			Msg("Request exceeds item cap, extra items dropped")
		items = items[:reminder.MaxItems]
	}

	ctx := c.Request.Context()
	resp := reminder.Response{}
	var firstErr error
	for i, item := range items {
		if !reconciliation.ValidEmail(item.Email) {
			s.log.Warn().Int("item", i).Str("email", item.Email).Msg("Skipping item without a valid email")
			continue
		}

		msg := s.compose(item)
		hash := messageHash(msg.To, msg.Subject, msg.Body)

		if s.dedupe != nil {
			seen, err := s.dedupe.Seen(ctx, hash)
			if err != nil {
				s.log.Error().Err(err).Msg("Failed to reach dedupe store, sending anyway")
			} else if seen {
				s.log.Info().Str("hash", hash).Str("to", msg.To).Msg("Reminder already sent")
				continue
			}
		}

		if err := s.mailer.Send(ctx, msg); err != nil {
			s.log.Error().Err(err).Str("to", msg.To).Msg("Failed to send reminder")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		resp.Sent++

		if s.dedupe != nil {
			if err := s.dedupe.Mark(ctx, hash, msg.To); err != nil {
				s.log.Error().Err(err).Msg("Failed to save hash")
			}
		}
	}

	resp.Success = firstErr == nil
	if firstErr != nil {
		resp.Error = firstErr.Error()
	}

	s.log.Info().
		Int("items", len(items)).
		Int("sent", resp.Sent).
		Bool("success", resp.Success).
		Msg("Send request handled")

	c.JSON(http.StatusOK, resp)
}

// compose renders the subject and, when the item has none, the body.
func (s *Server) compose(item reminder.Item) mailer.Message {
	body := item.Message
	if strings.TrimSpace(body) == "" {
		body = reminder.RenderItem(s.opts.Template, item)
	}
	return mailer.Message{
		To:      strings.TrimSpace(item.Email),
		Subject: reminder.RenderItem(s.opts.Subject, item),
		Body:    body,
	}
}

func (s *Server) requireToken() gin.HandlerFunc {
	want := "Bearer " + s.opts.Token
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") != want {
			c.AbortWithStatusJSON(http.StatusUnauthorized, reminder.Response{Error: "authentication failure"})
			return
		}
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration_ms", time.Since(started)).
			Send()
	}
}
