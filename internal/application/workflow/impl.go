package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ac-tresor/dossiers/internal/application/dispatcher"
	"github.com/ac-tresor/dossiers/internal/application/port"
	"github.com/ac-tresor/dossiers/internal/domain/entity"
	"github.com/ac-tresor/dossiers/internal/domain/errs"
	"github.com/ac-tresor/dossiers/internal/domain/event"
	domainwf "github.com/ac-tresor/dossiers/internal/domain/workflow"
)

// Deps are the collaborators of the engine
type Deps struct {
	Dossiers    port.DossierRepository
	History     port.HistoryRepository
	Referentiel port.ReferentielRepository
	Validations port.ValidationRepository
	Quitus      port.QuitusRepository
	Users       port.UserRepository
	Storage     port.FileStorage
	Renderer    port.QuitusRenderer
	TxManager   port.TransactionManager
}

// engineImpl is the concrete implementation of DossierEngine
type engineImpl struct {
	Deps

	dispatcher dispatcher.Dispatcher
	recorder   TransitionRecorder
	strictCB   bool
	now        func() time.Time
}

// EngineOption configures the workflow engine
type EngineOption func(*engineImpl)

// WithDispatcher sets the event dispatcher used for notifications
func WithDispatcher(d dispatcher.Dispatcher) EngineOption {
	return func(e *engineImpl) {
		e.dispatcher = d
	}
}

// WithRecorder sets a metrics recorder for transition outcomes
func WithRecorder(r TransitionRecorder) EngineOption {
	return func(e *engineImpl) {
		e.recorder = r
	}
}

// WithStrictCBValidation requires a type-of-operation validation before CB validation
func WithStrictCBValidation(strict bool) EngineOption {
	return func(e *engineImpl) {
		e.strictCB = strict
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) EngineOption {
	return func(e *engineImpl) {
		e.now = now
	}
}

// NewEngine creates a new dossier workflow engine
func NewEngine(deps Deps, opts ...EngineOption) DossierEngine {
	e := &engineImpl{
		Deps:     deps,
		strictCB: true,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// guardInputs is filled inside the transaction and read by the machine guards
type guardInputs struct {
	operationValidation *entity.OperationValidation
	report              *entity.VerificationReport
}

func (e *engineImpl) machineFor(state domainwf.State, gi *guardInputs) domainwf.StateMachine {
	return BuildDossierStateMachine(state, e.strictCB, Guards{
		OperationTypeValidated: func(ctx context.Context) bool {
			return gi.operationValidation != nil
		},
		VerificationsConsistent: func(ctx context.Context) bool {
			return gi.report != nil && !gi.report.HasInconsistency
		},
	})
}

// step describes one transition attempt
type step struct {
	trigger domainwf.Trigger
	action  string
	comment string

	// validate checks the request body before anything is read
	validate func() error
	// prepare runs inside the transaction once the edge exists for the current state
	prepare func(ctx context.Context, d *entity.Dossier, gi *guardInputs) error
	// guardError explains a failed guard
	guardError func(gi *guardInputs) error
	// apply mutates workflow fields after the machine accepted the trigger
	apply func(d *entity.Dossier, now time.Time)

	eventType event.Type
	decorate  func(evt *event.Event) *event.Event
}

// run performs role check, input validation, then a transaction that reads the
// dossier, checks the edge, fires the machine, writes the dossier conditionally
// on its previous statut and appends history. The event is dispatched after commit.
func (e *engineImpl) run(ctx context.Context, p entity.Principal, dossierID string, s step) (*entity.Dossier, error) {
	err := e.authorizeRole(p, s.trigger)
	if err == nil && s.validate != nil {
		err = s.validate()
	}
	if err != nil {
		e.observe(s.trigger, err)
		return nil, err
	}

	var (
		out      *entity.Dossier
		from, to domainwf.State
	)

	err = e.TxManager.WithTransaction(ctx, func(txCtx context.Context) error {
		d, err := e.load(txCtx, dossierID)
		if err != nil {
			return err
		}

		gi := &guardInputs{}
		machine := e.machineFor(d.Statut, gi)
		if err := machine.Authorize(p.Role, s.trigger); err != nil {
			return e.machineError(err, d, s, gi)
		}

		if s.prepare != nil {
			if err := s.prepare(txCtx, d, gi); err != nil {
				return err
			}
		}

		from = d.Statut
		if err := machine.Fire(txCtx, p.Role, s.trigger); err != nil {
			return e.machineError(err, d, s, gi)
		}
		to = machine.State()

		now := e.now()
		if s.apply != nil {
			s.apply(d, now)
		}
		d.Statut = to

		if err := e.write(txCtx, d, from); err != nil {
			return err
		}

		if err := e.appendHistory(txCtx, p, d.ID, from, to, s.action, s.comment, now); err != nil {
			return err
		}

		out = d
		return nil
	})

	e.observe(s.trigger, err)
	if err != nil {
		return nil, err
	}

	if s.eventType != "" {
		evt := e.newEvent(s.eventType, out, p).WithTransition(from.String(), to.String())
		if s.comment != "" {
			evt = evt.WithComment(s.comment)
		}
		if s.decorate != nil {
			evt = s.decorate(evt)
		}
		e.emit(ctx, evt)
	}

	return out, nil
}

// authorizeRole rejects callers whose role may never fire the trigger, whatever the state
func (e *engineImpl) authorizeRole(p entity.Principal, trigger domainwf.Trigger) error {
	if p.UserID == "" || !p.Role.IsValid() {
		return fmt.Errorf("%w: missing or invalid principal", errs.ErrUnauthenticated)
	}

	err := e.machineFor(domainwf.StateEnAttente, &guardInputs{}).Authorize(p.Role, trigger)
	if errors.Is(err, domainwf.ErrRoleNotPermitted) {
		return errs.Authorization("role %s cannot perform %s", p.Role, trigger)
	}
	return nil
}

func (e *engineImpl) machineError(err error, d *entity.Dossier, s step, gi *guardInputs) error {
	switch {
	case errors.Is(err, domainwf.ErrRoleNotPermitted):
		return errs.Authorization("role cannot perform %s", s.trigger)
	case errors.Is(err, domainwf.ErrInvalidTransition):
		return errs.Conflict("dossier %s is %s; %s is not possible", d.NumeroDossier, d.Statut, s.trigger)
	case errors.Is(err, domainwf.ErrGuardFailed):
		if s.guardError != nil {
			return s.guardError(gi)
		}
		return errs.Validation("preconditions for %s are not met", s.trigger)
	default:
		return err
	}
}

func (e *engineImpl) load(ctx context.Context, dossierID string) (*entity.Dossier, error) {
	if strings.TrimSpace(dossierID) == "" {
		return nil, errs.Validation("dossier id is required")
	}

	d, err := e.Dossiers.GetByID(ctx, dossierID)
	if err != nil {
		return nil, errs.Persistence("load dossier", err)
	}
	if d == nil {
		return nil, errs.NotFound("dossier %s", dossierID)
	}
	if !d.Statut.IsValid() {
		return nil, errs.Persistence("load dossier", fmt.Errorf("%w: %q", domainwf.ErrInvalidState, d.Statut))
	}
	return d, nil
}

func (e *engineImpl) write(ctx context.Context, d *entity.Dossier, expected domainwf.State) error {
	ok, err := e.Dossiers.UpdateWorkflow(ctx, d, expected)
	if err != nil {
		return errs.Persistence("update dossier", err)
	}
	if !ok {
		return errs.Conflict("dossier %s changed since it was read", d.NumeroDossier)
	}
	return nil
}

func (e *engineImpl) appendHistory(ctx context.Context, p entity.Principal, dossierID string, from, to domainwf.State, action, comment string, at time.Time) error {
	err := e.History.Create(ctx, &entity.DossierHistory{
		DossierID:      dossierID,
		ActorID:        p.UserID,
		ActorRole:      p.Role.String(),
		PreviousStatus: from.String(),
		NewStatus:      to.String(),
		ActionType:     action,
		Comment:        comment,
		Timestamp:      at,
	})
	return errs.Persistence("create history record", err)
}

func (e *engineImpl) newEvent(t event.Type, d *entity.Dossier, p entity.Principal) *event.Event {
	return event.NewEvent(t, event.Subject{
		DossierID:     d.ID,
		NumeroDossier: d.NumeroDossier,
		SecretaireID:  d.SecretaireID,
	}, p.UserID)
}

func (e *engineImpl) emit(ctx context.Context, evt *event.Event) {
	if e.dispatcher != nil {
		e.dispatcher.DispatchAsync(ctx, evt)
	}
}

func (e *engineImpl) observe(trigger domainwf.Trigger, err error) {
	if e.recorder != nil {
		e.recorder.ObserveTransition(trigger.String(), outcome(err))
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, errs.ErrValidation):
		return "validation"
	case errors.Is(err, errs.ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, errs.ErrAuthorization):
		return "authorization"
	case errors.Is(err, errs.ErrConflict):
		return "conflict"
	case errors.Is(err, errs.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// ValidateCB moves EN_ATTENTE to VALIDÉ_CB
func (e *engineImpl) ValidateCB(ctx context.Context, p entity.Principal, dossierID, comment string) (*entity.Dossier, error) {
	comment = strings.TrimSpace(comment)
	return e.run(ctx, p, dossierID, step{
		trigger: domainwf.TriggerValiderCB,
		action:  entity.ActionValidateCB,
		comment: comment,
		prepare: func(ctx context.Context, d *entity.Dossier, gi *guardInputs) error {
			if !e.strictCB {
				return nil
			}
			v, err := e.Validations.GetOperationValidation(ctx, d.ID)
			if err != nil {
				return errs.Persistence("load operation validation", err)
			}
			gi.operationValidation = v
			return nil
		},
		guardError: func(gi *guardInputs) error {
			return errs.Validation("the type of operation must be validated before the dossier")
		},
		apply: func(d *entity.Dossier, now time.Time) {
			d.CommentaireCB = comment
			d.ValidatedCBAt = &now
		},
		eventType: event.TypeDossierValidatedCB,
	})
}

// RejectCB moves EN_ATTENTE to REJETÉ_CB
func (e *engineImpl) RejectCB(ctx context.Context, p entity.Principal, dossierID string, in RejectInput) (*entity.Dossier, error) {
	reason := strings.TrimSpace(in.Reason)
	details := strings.TrimSpace(in.Details)
	return e.run(ctx, p, dossierID, step{
		trigger: domainwf.TriggerRejeterCB,
		action:  entity.ActionRejectCB,
		comment: reason,
		validate: func() error {
			if reason == "" {
				return errs.Validation("a rejection reason is required")
			}
			return nil
		},
		apply: func(d *entity.Dossier, now time.Time) {
			d.RejectionReason = reason
			d.RejectionDetails = details
			d.RejectedAt = &now
		},
		eventType: event.TypeDossierRejectedCB,
		decorate: func(evt *event.Event) *event.Event {
			return evt.WithReason(reason)
		},
	})
}

// Ordonnance moves VALIDÉ_CB to VALIDÉ_ORDONNATEUR
func (e *engineImpl) Ordonnance(ctx context.Context, p entity.Principal, dossierID, comment string) (*entity.Dossier, error) {
	comment = strings.TrimSpace(comment)
	return e.run(ctx, p, dossierID, step{
		trigger: domainwf.TriggerOrdonnancer,
		action:  entity.ActionOrdonnance,
		comment: comment,
		apply: func(d *entity.Dossier, now time.Time) {
			d.CommentaireOrdonnateur = comment
			d.OrdonnancedAt = &now
		},
		eventType: event.TypeDossierOrdonnanced,
	})
}

// ValidateDefinitively moves VALIDÉ_ORDONNATEUR to VALIDÉ_DÉFINITIVEMENT
func (e *engineImpl) ValidateDefinitively(ctx context.Context, p entity.Principal, dossierID, comment string) (*entity.Dossier, error) {
	comment = strings.TrimSpace(comment)
	return e.run(ctx, p, dossierID, step{
		trigger: domainwf.TriggerValiderDefinitivement,
		action:  entity.ActionValidateDefinitively,
		comment: comment,
		prepare: func(ctx context.Context, d *entity.Dossier, gi *guardInputs) error {
			report, err := e.buildReport(ctx, d.ID)
			if err != nil {
				return err
			}
			gi.report = report
			return nil
		},
		guardError: func(gi *guardInputs) error {
			return errs.Validation("verification report is inconsistent: %d mandatory check(s) rejected, %d unanswered",
				gi.report.MandatoryRejected, gi.report.MandatoryPending)
		},
		apply: func(d *entity.Dossier, now time.Time) {
			d.CommentaireDefinitif = comment
			d.ValidatedDefinitivelyAt = &now
		},
		eventType: event.TypeDossierValidatedDefinitively,
	})
}

// Close moves VALIDÉ_DÉFINITIVEMENT to TERMINÉ
func (e *engineImpl) Close(ctx context.Context, p entity.Principal, dossierID, comment string) (*entity.Dossier, error) {
	comment = strings.TrimSpace(comment)
	return e.run(ctx, p, dossierID, step{
		trigger: domainwf.TriggerCloturer,
		action:  entity.ActionClose,
		comment: comment,
		apply: func(d *entity.Dossier, now time.Time) {
			d.CommentaireCloture = comment
			d.ClosedAt = &now
		},
		eventType: event.TypeDossierClosed,
	})
}

// PermittedActions lists the triggers the caller can fire on the dossier in its current state
func (e *engineImpl) PermittedActions(ctx context.Context, p entity.Principal, dossierID string) ([]domainwf.Trigger, error) {
	if p.UserID == "" || !p.Role.IsValid() {
		return nil, fmt.Errorf("%w: missing or invalid principal", errs.ErrUnauthenticated)
	}

	d, err := e.load(ctx, dossierID)
	if err != nil {
		return nil, err
	}

	return e.machineFor(d.Statut, &guardInputs{}).PermittedTriggers(p.Role), nil
}
