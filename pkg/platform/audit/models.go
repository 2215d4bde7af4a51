// Package audit captures the actions that matter for a payroll compliance
// trail: which files entered the system, what they did to the rubric table
// and when audits ran. Events go through the transactional outbox so the
// trail survives crashes between the domain write and publication.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategoryCompliance covers events with legal significance: everything
	// that changes the rubric table or the stored findings.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers events useful for debugging and
	// operational visibility, such as rejected uploads.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	EmpresaID uuid.UUID
	Action    string
	// Subject is the thing acted on: a file name, a rubric code, a
	// competência.
	Subject string
	Detail  string
}

type AuditEvent string

const (
	EventArquivoImportado    AuditEvent = "arquivo_importado"
	EventArquivoRejeitado    AuditEvent = "arquivo_rejeitado"
	EventVigenciaEncerrada   AuditEvent = "vigencia_encerrada"
	EventAuditoriaExecutada  AuditEvent = "auditoria_executada"
	EventDivergenciasLimpas  AuditEvent = "divergencias_limpas"
	EventParametrosResolvido AuditEvent = "parametros_resolvidos"
)

// eventCategories maps each action to its category. Unknown actions land in
// operations.
var eventCategories = map[AuditEvent]EventCategory{
	EventArquivoImportado:    CategoryCompliance,
	EventArquivoRejeitado:    CategoryOperations,
	EventVigenciaEncerrada:   CategoryCompliance,
	EventAuditoriaExecutada:  CategoryCompliance,
	EventDivergenciasLimpas:  CategoryCompliance,
	EventParametrosResolvido: CategoryOperations,
}

// Category returns the category for the event action.
func (e AuditEvent) Category() EventCategory {
	if c, ok := eventCategories[e]; ok {
		return c
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Publisher is the nil-safe facade domain services emit through. A nil
// *Publisher drops events, so wiring audit is optional in tests and local
// runs.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

// Publish stamps and appends the event. Failures are returned so callers can
// log them; an audit failure never aborts the domain operation.
func (p *Publisher) Publish(ctx context.Context, event Event) error {
	if p == nil || p.store == nil {
		return nil
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = AuditEvent(event.Action).Category()
	}
	return p.store.Append(ctx, event)
}
