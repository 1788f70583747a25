package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"

	"CommodSim/internal/domain/models"
	domrepo "CommodSim/internal/domain/repository"
	pkgkafka "CommodSim/pkg/kafka"
	"CommodSim/pkg/logger"
)

// maxAbsBias bounds externally pushed bias; the computed bias stays far below it.
const maxAbsBias = 0.5

// BiasOverrider accepts externally supplied weather bias.
type BiasOverrider interface {
	Override(bias map[string]float64)
}

// HubResolver reports whether a hub exists.
type HubResolver interface {
	Lookup(name string) (models.Hub, models.Sector, bool)
}

// BiasHandler consumes {"bias": {hub: value}} messages from Kafka and merges
// them over the computed weather bias.
type BiasHandler struct {
	topic    string
	target   BiasOverrider
	hubs     HubResolver
	metrics  domrepo.Metrics
	log      *logger.Logger
	validate *validator.Validate
}

func NewBiasHandler(topic string, target BiasOverrider, hubs HubResolver, metrics domrepo.Metrics, log *logger.Logger) *BiasHandler {
	return &BiasHandler{
		topic:    topic,
		target:   target,
		hubs:     hubs,
		metrics:  metrics,
		log:      log.Named("bias-consumer"),
		validate: validator.New(),
	}
}

func (h *BiasHandler) Topic() string { return h.topic }

// Handle applies the known, finite, bounded entries of a bias message. Unknown
// hubs are dropped; a message with nothing usable is an error so it reaches
// the DLQ.
func (h *BiasHandler) Handle(ctx context.Context, b []byte) error {
	var msg models.BiasMessage
	if err := json.Unmarshal(b, &msg); err != nil {
		h.metrics.RecordError("bias_unmarshal")
		return fmt.Errorf("decode bias message: %w", err)
	}
	if err := h.validate.StructCtx(ctx, &msg); err != nil {
		h.metrics.RecordError("bias_validate")
		return fmt.Errorf("validate bias message: %w", err)
	}

	accepted := make(map[string]float64, len(msg.Bias))
	for hub, v := range msg.Bias {
		if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > maxAbsBias {
			continue
		}
		if _, _, ok := h.hubs.Lookup(hub); !ok {
			continue
		}
		accepted[hub] = v
	}
	if len(accepted) == 0 {
		h.metrics.RecordError("bias_empty")
		return fmt.Errorf("bias message has no usable entries")
	}
	if dropped := len(msg.Bias) - len(accepted); dropped > 0 {
		h.log.Warn("bias entries dropped", logger.Int("dropped", dropped))
	}

	h.target.Override(accepted)
	h.log.Info("bias override applied", logger.Int("hubs", len(accepted)))
	return nil
}

var _ pkgkafka.MessageHandler = (*BiasHandler)(nil)
