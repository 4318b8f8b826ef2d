// Package inference turns raw form values into a verdict: it parses and
// encodes each field, assembles the domain's feature vector, applies the
// domain's scaler, dispatches to the domain's classifier and interprets the
// resulting label.
package inference

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/Skufu/medpredict/internal/artifact"
	"github.com/Skufu/medpredict/internal/logging"
	"github.com/Skufu/medpredict/internal/schema"
)

// Options tunes a Pipeline.
type Options struct {
	// StrictRanges rejects numeric values outside their advisory range.
	StrictRanges bool
	Logger       *slog.Logger
}

// Pipeline runs predictions against an immutable artifact registry. It keeps
// no per-request state and is safe for concurrent use.
type Pipeline struct {
	scaler     *ScalerAdapter
	dispatcher *Dispatcher
	strict     bool
	log        *slog.Logger
}

func New(reg *artifact.Registry, opts Options) *Pipeline {
	l := opts.Logger
	if l == nil {
		l = slog.Default()
	}
	return &Pipeline{
		scaler:     NewScalerAdapter(reg),
		dispatcher: NewDispatcher(reg),
		strict:     opts.StrictRanges,
		log:        l.With("component", "inference"),
	}
}

// StrictRanges reports whether advisory ranges are enforced.
func (p *Pipeline) StrictRanges() bool { return p.strict }

// Values parses and encodes every schema field present in raw. Keys that are
// not part of the schema are ignored. The first invalid field, in schema
// order, fails the whole request.
func (p *Pipeline) Values(d schema.Domain, raw map[string]string) (map[string]float64, error) {
	s := schema.For(d)
	out := make(map[string]float64, s.Len())
	for _, f := range s.Fields {
		text, ok := raw[f.Name]
		if !ok {
			continue
		}
		var (
			v   float64
			err error
		)
		switch f.Kind {
		case schema.Numeric:
			v, err = ParseNumeric(f, text)
			if err == nil && p.strict {
				err = CheckRange(f, v)
			}
		case schema.Categorical:
			v, err = EncodeLabel(f, text)
		}
		if err != nil {
			return nil, err
		}
		out[f.Name] = v
	}
	if len(raw) > len(out) {
		for k := range raw {
			if _, known := s.Field(k); !known {
				p.log.Debug("ignoring unknown field", "domain", d.String(), "field", k)
			}
		}
	}
	return out, nil
}

// Vector builds the unscaled feature vector for raw.
func (p *Pipeline) Vector(d schema.Domain, raw map[string]string) (FeatureVector, error) {
	values, err := p.Values(d, raw)
	if err != nil {
		return nil, err
	}
	return Assemble(d, values)
}

// Predict runs the full pipeline for one request.
func (p *Pipeline) Predict(ctx context.Context, d schema.Domain, raw map[string]string) (Verdict, error) {
	start := time.Now()
	v, err := p.predict(d, raw)
	predictionDuration.WithLabelValues(d.String()).Observe(time.Since(start).Seconds())

	if err != nil {
		kind := KindOf(err)
		predictionErrorsTotal.WithLabelValues(d.String(), string(kind)).Inc()
		attrs := []any{"domain", d.String(), "kind", string(kind), "request_id", logging.RequestID(ctx), "err", err}
		if IsUserInput(err) {
			p.log.InfoContext(ctx, "prediction rejected", attrs...)
		} else {
			p.log.ErrorContext(ctx, "prediction failed", attrs...)
		}
		return Verdict{}, err
	}

	predictionsTotal.WithLabelValues(d.String(), strconv.Itoa(v.Label)).Inc()
	p.log.DebugContext(ctx, "prediction served", "domain", d.String(), "label", v.Label, "request_id", logging.RequestID(ctx))
	return v, nil
}

func (p *Pipeline) predict(d schema.Domain, raw map[string]string) (Verdict, error) {
	vec, err := p.Vector(d, raw)
	if err != nil {
		return Verdict{}, err
	}
	scaled, err := p.scaler.Scale(d, vec)
	if err != nil {
		return Verdict{}, err
	}
	label, err := p.dispatcher.Dispatch(d, scaled)
	if err != nil {
		return Verdict{}, err
	}
	return Interpret(d, label)
}
