package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Skufu/medpredict/internal/audit"
	"github.com/Skufu/medpredict/internal/inference"
	"github.com/Skufu/medpredict/internal/logging"
	"github.com/Skufu/medpredict/internal/schema"
)

// RawValue is one submitted form value. Clients may send it as a JSON string
// or a JSON number; either way the pipeline receives the text.
type RawValue string

func (v *RawValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = RawValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("value must be a string or a number")
	}
	*v = RawValue(n.String())
	return nil
}

const auditTimeout = 2 * time.Second

type predictRequest struct {
	Fields map[string]RawValue `json:"fields" binding:"required"`
}

func (h *handler) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handler) readyz(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "disabled"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "ok"
	if err := h.db.Ping(ctx); err != nil {
		dbStatus = fmt.Sprintf("unhealthy: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "degraded",
			"db":     dbStatus,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"db":     dbStatus,
	})
}

type domainSummary struct {
	Name          string `json:"name"`
	Title         string `json:"title"`
	Fields        int    `json:"fields"`
	ModelKind     string `json:"model_kind"`
	ModelVersion  string `json:"model_version"`
	Scaled        bool   `json:"scaled"`
	ScalerVersion string `json:"scaler_version,omitempty"`
}

func (h *handler) listDomains(c *gin.Context) {
	out := []domainSummary{}
	for _, info := range h.registry.Describe() {
		out = append(out, domainSummary{
			Name:          info.Domain.String(),
			Title:         info.Domain.Title(),
			Fields:        schema.For(info.Domain).Len(),
			ModelKind:     string(info.ModelKind),
			ModelVersion:  info.ModelVersion,
			Scaled:        info.Scaled,
			ScalerVersion: info.ScalerVersion,
		})
	}
	c.JSON(http.StatusOK, gin.H{"domains": out})
}

type fieldView struct {
	Name     string        `json:"name"`
	Kind     schema.Kind   `json:"kind"`
	Position int           `json:"position"`
	Label    string        `json:"label"`
	Unit     string        `json:"unit,omitempty"`
	Example  string        `json:"example,omitempty"`
	Range    *schema.Range `json:"range,omitempty"`
	Options  []schema.Code `json:"options,omitempty"`
}

func (h *handler) domainSchema(c *gin.Context) {
	d, ok := h.domainParam(c)
	if !ok {
		return
	}
	s := schema.For(d)
	fields := make([]fieldView, 0, s.Len())
	for _, f := range s.Fields {
		v := fieldView{
			Name:     f.Name,
			Kind:     f.Kind,
			Position: f.Position,
			Label:    f.Label,
			Unit:     f.Unit,
			Example:  f.Example,
			Range:    f.Range,
		}
		if f.Table != nil {
			v.Options = f.Table.Entries()
		}
		fields = append(fields, v)
	}
	c.JSON(http.StatusOK, gin.H{
		"domain":        d.String(),
		"title":         d.Title(),
		"strict_ranges": h.pipeline.StrictRanges(),
		"fields":        fields,
	})
}

func (h *handler) predict(c *gin.Context) {
	d, ok := h.domainParam(c)
	if !ok {
		return
	}

	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "payload too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	raw := make(map[string]string, len(req.Fields))
	for k, v := range req.Fields {
		raw[k] = string(v)
	}

	ctx := c.Request.Context()
	verdict, err := h.pipeline.Predict(ctx, d, raw)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if h.audit != nil {
		entry := audit.Entry{
			RequestID: logging.RequestID(ctx),
			Domain:    d.String(),
			Label:     verdict.Label,
			Positive:  verdict.Positive,
		}
		// The row is written even if the client has already gone away.
		auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
		err := h.audit.Record(auditCtx, entry)
		cancel()
		if err != nil {
			h.log.WarnContext(ctx, "audit record failed", "request_id", entry.RequestID, "err", err)
		}
	}

	c.JSON(http.StatusOK, verdict)
}

func (h *handler) writeError(c *gin.Context, err error) {
	switch kind := inference.KindOf(err); {
	case inference.IsUserInput(err):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "invalid_input",
			"kind":    kind,
			"field":   inference.FieldOf(err),
			"message": err.Error(),
		})
	case kind == inference.KindIncomplete:
		var ie *inference.IncompleteInputError
		errors.As(err, &ie)
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "incomplete_input",
			"missing": ie.Missing,
			"message": err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "inference_failed"})
	}
}

func (h *handler) domainParam(c *gin.Context) (schema.Domain, bool) {
	d, err := schema.ParseDomain(c.Param("domain"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown domain"})
		return 0, false
	}
	return d, true
}
