package whatsapp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// SimulatedDispatcher is a stand-in provider for development and testing:
// it answers every call locally so the panel can be exercised without real
// WhatsApp credentials.
type SimulatedDispatcher struct {
	logger *slog.Logger
	wabaID string
}

func NewSimulatedDispatcher(logger *slog.Logger, wabaID string) *SimulatedDispatcher {
	if wabaID == "" {
		wabaID = "simulated-waba"
	}
	return &SimulatedDispatcher{
		logger: logger.With("provider", "simulation"),
		wabaID: wabaID,
	}
}

func (d *SimulatedDispatcher) GetName() string {
	return "simulation"
}

func (d *SimulatedDispatcher) SendTemplate(ctx context.Context, req SendTemplateRequest) (*SendTemplateResult, error) {
	messageID := "sim_" + uuid.NewString()
	d.logger.InfoContext(ctx, "SimulatedDispatcher: template dispatch",
		"recipient", req.To, "template", req.Template, "message_id", messageID)
	return &SendTemplateResult{
		MessageID: messageID,
		Recipient: req.To,
		Simulated: true,
	}, nil
}

func (d *SimulatedDispatcher) ListTemplates(ctx context.Context) ([]TemplateInfo, error) {
	return []TemplateInfo{
		{Name: "boas_vindas_wj", Category: "MARKETING", Status: "APPROVED", Language: "pt_BR"},
		{Name: "aviso_pedidos_2026", Category: "UTILITY", Status: "APPROVED", Language: "pt_BR"},
		{Name: "cobranca_atraso", Category: "UTILITY", Status: "REJECTED", Language: "pt_BR"},
	}, nil
}

func (d *SimulatedDispatcher) GetAccount(ctx context.Context) (*AccountInfo, error) {
	return &AccountInfo{
		Source: "simulation",
		WABAID: d.wabaID,
		Phones: []PhoneNumber{
			{ID: "sim-phone-1", Display: "+55 11 99999-9999", Status: "GREEN"},
		},
	}, nil
}

func (d *SimulatedDispatcher) FetchMedia(ctx context.Context, mediaID string) (*Media, error) {
	return nil, fmt.Errorf("media proxy disabled in simulation mode")
}
