package worker

// recibo_email_worker.go
// Processes receipt jobs from QueueRecibos: renders the order receipts and
// e-mails them to the buyer. SMTP calls go through the circuit breaker.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cuchito/internal/apierror"
	"cuchito/internal/infra"
	"cuchito/internal/repository"
	"cuchito/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ReciboMailer is satisfied by *infra.Mailer.
type ReciboMailer interface {
	SendRecibos(to, subject, body string, files []infra.Attachment) error
}

type ReciboEmailWorker struct {
	recibos      service.ReciboService
	usuarios     repository.UsuarioRepository
	mailer       ReciboMailer
	cb           *infra.CircuitBreaker
	businessName string
}

func NewReciboEmailWorker(
	recibos service.ReciboService,
	usuarios repository.UsuarioRepository,
	mailer ReciboMailer,
	cb *infra.CircuitBreaker,
	businessName string,
) *ReciboEmailWorker {
	return &ReciboEmailWorker{
		recibos:      recibos,
		usuarios:     usuarios,
		mailer:       mailer,
		cb:           cb,
		businessName: businessName,
	}
}

// Process renders and sends the receipts of one order.
func (w *ReciboEmailWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ReciboJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Permanent(fmt.Errorf("recibo_worker: invalid payload: %w", err))
	}
	orderID, err := uuid.Parse(payload.OrderID)
	if err != nil {
		return Permanent(fmt.Errorf("recibo_worker: invalid order_id %q", payload.OrderID))
	}

	lote, err := w.recibos.Generar(ctx, orderID)
	if apierror.Is(err, apierror.KindNotFound) {
		return Permanent(err)
	}
	if err != nil {
		return err
	}
	if len(lote.Recibos) == 0 {
		log.Info().Str("order_id", payload.OrderID).Msg("recibo_worker: nothing printable, skipping")
		return nil
	}

	user, err := w.usuarios.FindByID(ctx, lote.Orden.UserID)
	if err != nil {
		return fmt.Errorf("recibo_worker: buyer lookup: %w", err)
	}

	files := make([]infra.Attachment, len(lote.Recibos))
	for i, r := range lote.Recibos {
		files[i] = infra.Attachment{Filename: r.Filename, ContentType: r.ContentType, Content: r.Content}
	}
	subject := fmt.Sprintf("%s - Pedido #%d", w.businessName, lote.Orden.OrderNumber)
	body := fmt.Sprintf("Gracias por tu compra. Adjuntamos el detalle del pedido #%d.", lote.Orden.OrderNumber)

	err = w.cb.Execute(func() error {
		return w.mailer.SendRecibos(user.Email, subject, body, files)
	})
	if errors.Is(err, infra.ErrCircuitOpen) {
		return fmt.Errorf("recibo_worker: smtp unavailable: %w", err)
	}
	if err != nil {
		return fmt.Errorf("recibo_worker: send: %w", err)
	}

	log.Info().Str("order_id", payload.OrderID).Int("files", len(files)).Msg("recibo_worker: receipts sent")
	return nil
}
