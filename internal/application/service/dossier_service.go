package service

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/ac-tresor/dossiers/internal/application/dispatcher"
	"github.com/ac-tresor/dossiers/internal/application/port"
	"github.com/ac-tresor/dossiers/internal/domain/entity"
	"github.com/ac-tresor/dossiers/internal/domain/errs"
	"github.com/ac-tresor/dossiers/internal/domain/event"
	domainwf "github.com/ac-tresor/dossiers/internal/domain/workflow"
	"github.com/google/uuid"
)

const (
	documentsDir     = "documents"
	xlsxContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	defaultListLimit = 50
	maxListLimit     = 200
)

// CreateDossierInput is the secretary's deposit form
type CreateDossierInput struct {
	NumeroNature   string
	NatureDocument string
	PosteComptable string
	ObjetOperation string
	Beneficiaire   string
	DateDepot      time.Time
}

// ListDossiersInput filters dossier listings
type ListDossiersInput struct {
	Statut string
	Vue    string
	Search string
	Limit  int
	Offset int
}

// DocumentUpload is a file attached by the secretary
type DocumentUpload struct {
	FileName    string
	ContentType string
	Content     []byte
}

// FileContent is a downloadable file
type FileContent struct {
	FileName    string
	ContentType string
	Content     []byte
}

// DossierService manages dossier records outside of workflow transitions
type DossierService interface {
	Create(ctx context.Context, p entity.Principal, in CreateDossierInput) (*entity.Dossier, error)
	Get(ctx context.Context, p entity.Principal, id string) (*entity.Dossier, error)
	List(ctx context.Context, p entity.Principal, in ListDossiersInput) ([]*entity.Dossier, error)
	Stats(ctx context.Context, p entity.Principal) (map[domainwf.State]int, error)
	History(ctx context.Context, p entity.Principal, id string) ([]*entity.DossierHistory, error)

	AttachDocument(ctx context.Context, p entity.Principal, id string, upload DocumentUpload) (*entity.Document, error)
	DetachDocument(ctx context.Context, p entity.Principal, id, documentID string) error
	ListDocuments(ctx context.Context, p entity.Principal, id string) ([]*entity.Document, error)
	DownloadDocument(ctx context.Context, p entity.Principal, id, documentID string) (*FileContent, error)

	DownloadQuitus(ctx context.Context, p entity.Principal, id string) (*FileContent, error)
}

// DossierServiceConfig holds the tunables of DossierService
type DossierServiceConfig struct {
	// NumberingCode prefixes dossier numbers
	NumberingCode string
	// DepensesTypeID and RecettesTypeID select the closed dossiers of the
	// "paye" and "recettes" views
	DepensesTypeID string
	RecettesTypeID string
}

type dossierServiceImpl struct {
	dossierRepo port.DossierRepository
	historyRepo port.HistoryRepository
	folderRepo  port.FolderRepository
	quitusRepo  port.QuitusRepository
	numbers     NumberGenerator
	storage     port.FileStorage
	txManager   port.TransactionManager
	dispatcher  dispatcher.Dispatcher
	cfg         DossierServiceConfig
	logger      Logger
}

// NewDossierService creates a new DossierService
func NewDossierService(
	dossierRepo port.DossierRepository,
	historyRepo port.HistoryRepository,
	folderRepo port.FolderRepository,
	quitusRepo port.QuitusRepository,
	numbers NumberGenerator,
	storage port.FileStorage,
	txManager port.TransactionManager,
	dispatcher dispatcher.Dispatcher,
	cfg DossierServiceConfig,
	logger Logger,
) DossierService {
	return &dossierServiceImpl{
		dossierRepo: dossierRepo,
		historyRepo: historyRepo,
		folderRepo:  folderRepo,
		quitusRepo:  quitusRepo,
		numbers:     numbers,
		storage:     storage,
		txManager:   txManager,
		dispatcher:  dispatcher,
		cfg:         cfg,
		logger:      orNop(logger),
	}
}

// Create deposits a new dossier in EN_ATTENTE. The number, the folder, the
// dossier and its first history row are written in one transaction.
func (s *dossierServiceImpl) Create(ctx context.Context, p entity.Principal, in CreateDossierInput) (*entity.Dossier, error) {
	if p.Role != domainwf.RoleSecretaire {
		return nil, errs.Authorization("only the secretariat can deposit dossiers")
	}

	d := &entity.Dossier{
		ID:             uuid.NewString(),
		NumeroNature:   strings.TrimSpace(in.NumeroNature),
		NatureDocument: strings.TrimSpace(in.NatureDocument),
		PosteComptable: strings.TrimSpace(in.PosteComptable),
		ObjetOperation: strings.TrimSpace(in.ObjetOperation),
		Beneficiaire:   strings.TrimSpace(in.Beneficiaire),
		DateDepot:      in.DateDepot,
		Statut:         domainwf.StateEnAttente,
		SecretaireID:   p.UserID,
	}
	if d.ObjetOperation == "" || d.Beneficiaire == "" {
		return nil, errs.Validation("objet_operation and beneficiaire are required")
	}
	if d.DateDepot.IsZero() {
		d.DateDepot = time.Now()
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		numero, err := s.numbers.Next(txCtx, s.cfg.NumberingCode)
		if err != nil {
			return err
		}
		d.NumeroDossier = numero

		folder := &entity.Folder{ID: uuid.NewString(), Name: numero, OwnerID: p.UserID}
		if err := s.folderRepo.Create(txCtx, folder); err != nil {
			return errs.Persistence("create folder", err)
		}
		d.FolderID = folder.ID

		if err := s.dossierRepo.Create(txCtx, d); err != nil {
			return errs.Persistence("create dossier", err)
		}

		return errs.Persistence("create history record", s.historyRepo.Create(txCtx, &entity.DossierHistory{
			DossierID:  d.ID,
			ActorID:    p.UserID,
			ActorRole:  p.Role.String(),
			NewStatus:  d.Statut.String(),
			ActionType: entity.ActionCreate,
			Timestamp:  d.CreatedAt,
		}))
	})
	if err != nil {
		s.logger.Error("Failed to create dossier", "error", err, "user_id", p.UserID)
		return nil, err
	}

	s.logger.Info("Dossier created", "dossier_id", d.ID, "numero", d.NumeroDossier)
	if s.dispatcher != nil {
		s.dispatcher.DispatchAsync(ctx, event.NewEvent(event.TypeDossierCreated, event.Subject{
			DossierID:     d.ID,
			NumeroDossier: d.NumeroDossier,
			SecretaireID:  d.SecretaireID,
		}, p.UserID).WithTransition("", d.Statut.String()))
	}

	return d, nil
}

// Get returns a dossier visible to the principal, looked up by id or by its
// numero. A secretary only sees the dossiers they deposited; others are
// reported as not found.
func (s *dossierServiceImpl) Get(ctx context.Context, p entity.Principal, id string) (*entity.Dossier, error) {
	d, err := s.dossierRepo.GetByID(ctx, id)
	if err == nil && d == nil {
		d, err = s.dossierRepo.GetByNumero(ctx, id)
	}
	if err != nil {
		return nil, errs.Persistence("load dossier", err)
	}
	if d == nil || !visible(p, d) {
		return nil, errs.NotFound("dossier %s", id)
	}
	return d, nil
}

func visible(p entity.Principal, d *entity.Dossier) bool {
	return p.Role != domainwf.RoleSecretaire || d.SecretaireID == p.UserID
}

// List applies the statut filter or one of the dashboard views
func (s *dossierServiceImpl) List(ctx context.Context, p entity.Principal, in ListDossiersInput) ([]*entity.Dossier, error) {
	filter := entity.DossierFilter{
		Search: strings.TrimSpace(in.Search),
		Limit:  in.Limit,
		Offset: in.Offset,
	}
	if filter.Limit <= 0 || filter.Limit > maxListLimit {
		filter.Limit = defaultListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if p.Role == domainwf.RoleSecretaire {
		filter.SecretaireID = p.UserID
	}

	if in.Statut != "" {
		st := domainwf.State(in.Statut)
		if !st.IsValid() {
			return nil, errs.Validation("unknown statut %q", in.Statut)
		}
		filter.Statut = st
	}

	switch in.Vue {
	case entity.ViewAll:
	case entity.ViewPaye:
		filter.Statut = domainwf.StateTermine
		filter.TypeOperationID = s.cfg.DepensesTypeID
	case entity.ViewRecettes:
		filter.Statut = domainwf.StateTermine
		filter.TypeOperationID = s.cfg.RecettesTypeID
	case entity.ViewEnCours:
		for _, st := range domainwf.AllStates() {
			if !st.IsTerminal() {
				filter.Statuts = append(filter.Statuts, st)
			}
		}
	default:
		return nil, errs.Validation("unknown vue %q", in.Vue)
	}

	dossiers, err := s.dossierRepo.List(ctx, filter)
	if err != nil {
		return nil, errs.Persistence("list dossiers", err)
	}
	if dossiers == nil {
		dossiers = []*entity.Dossier{}
	}
	return dossiers, nil
}

// Stats counts dossiers per state for the dashboard
func (s *dossierServiceImpl) Stats(ctx context.Context, p entity.Principal) (map[domainwf.State]int, error) {
	counts, err := s.dossierRepo.CountByStatut(ctx)
	if err != nil {
		return nil, errs.Persistence("count dossiers", err)
	}
	for _, st := range domainwf.AllStates() {
		if _, ok := counts[st]; !ok {
			counts[st] = 0
		}
	}
	return counts, nil
}

func (s *dossierServiceImpl) History(ctx context.Context, p entity.Principal, id string) ([]*entity.DossierHistory, error) {
	d, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}

	history, err := s.historyRepo.ListByDossier(ctx, d.ID)
	if err != nil {
		return nil, errs.Persistence("list history", err)
	}
	return history, nil
}

// editable checks that the principal may change the documents of the dossier
func (s *dossierServiceImpl) editable(ctx context.Context, p entity.Principal, id string) (*entity.Dossier, error) {
	if p.Role != domainwf.RoleSecretaire {
		return nil, errs.Authorization("only the secretariat manages documents")
	}
	d, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if d.Statut != domainwf.StateEnAttente {
		return nil, errs.Conflict("documents of dossier %s are locked in state %s", d.NumeroDossier, d.Statut)
	}
	return d, nil
}

// AttachDocument stores the file, then records it with a history row
func (s *dossierServiceImpl) AttachDocument(ctx context.Context, p entity.Principal, id string, upload DocumentUpload) (*entity.Document, error) {
	d, err := s.editable(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if len(upload.Content) == 0 {
		return nil, errs.Validation("document is empty")
	}

	name := strings.TrimSpace(upload.FileName)
	if !validFileName(name) {
		return nil, errs.Validation("invalid file name %q", upload.FileName)
	}

	doc := &entity.Document{
		ID:          uuid.NewString(),
		FolderID:    d.FolderID,
		FileName:    name,
		ContentType: upload.ContentType,
		Size:        int64(len(upload.Content)),
		UploadedBy:  p.UserID,
	}
	doc.StoragePath = path.Join(documentsDir, d.FolderID, doc.ID+"_"+name)

	if err := s.storage.Save(ctx, doc.StoragePath, upload.Content); err != nil {
		return nil, errs.Persistence("store document", err)
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.folderRepo.AddDocument(txCtx, doc); err != nil {
			return errs.Persistence("add document", err)
		}
		return s.documentHistory(txCtx, p, d, entity.ActionAttachDocument, name)
	})
	if err != nil {
		if delErr := s.storage.Delete(ctx, doc.StoragePath); delErr != nil {
			s.logger.Error("Failed to remove orphan document", "error", delErr, "path", doc.StoragePath)
		}
		return nil, err
	}

	s.logger.Info("Document attached", "dossier_id", d.ID, "document_id", doc.ID, "size", doc.Size)
	return doc, nil
}

func (s *dossierServiceImpl) DetachDocument(ctx context.Context, p entity.Principal, id, documentID string) error {
	d, err := s.editable(ctx, p, id)
	if err != nil {
		return err
	}
	doc, err := s.document(ctx, d, documentID)
	if err != nil {
		return err
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.folderRepo.DeleteDocument(txCtx, doc.ID); err != nil {
			return errs.Persistence("delete document", err)
		}
		return s.documentHistory(txCtx, p, d, entity.ActionDetachDocument, doc.FileName)
	})
	if err != nil {
		return err
	}

	if err := s.storage.Delete(ctx, doc.StoragePath); err != nil {
		s.logger.Error("Failed to delete document file", "error", err, "path", doc.StoragePath)
	}
	return nil
}

func (s *dossierServiceImpl) documentHistory(ctx context.Context, p entity.Principal, d *entity.Dossier, action, fileName string) error {
	return errs.Persistence("create history record", s.historyRepo.Create(ctx, &entity.DossierHistory{
		DossierID:      d.ID,
		ActorID:        p.UserID,
		ActorRole:      p.Role.String(),
		PreviousStatus: d.Statut.String(),
		NewStatus:      d.Statut.String(),
		ActionType:     action,
		Comment:        fileName,
		Timestamp:      time.Now(),
	}))
}

func (s *dossierServiceImpl) document(ctx context.Context, d *entity.Dossier, documentID string) (*entity.Document, error) {
	doc, err := s.folderRepo.GetDocument(ctx, documentID)
	if err != nil {
		return nil, errs.Persistence("load document", err)
	}
	if doc == nil || doc.FolderID != d.FolderID {
		return nil, errs.NotFound("document %s", documentID)
	}
	return doc, nil
}

func (s *dossierServiceImpl) ListDocuments(ctx context.Context, p entity.Principal, id string) ([]*entity.Document, error) {
	d, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}

	docs, err := s.folderRepo.ListDocuments(ctx, d.FolderID)
	if err != nil {
		return nil, errs.Persistence("list documents", err)
	}
	if docs == nil {
		docs = []*entity.Document{}
	}
	return docs, nil
}

func (s *dossierServiceImpl) DownloadDocument(ctx context.Context, p entity.Principal, id, documentID string) (*FileContent, error) {
	d, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	doc, err := s.document(ctx, d, documentID)
	if err != nil {
		return nil, err
	}

	content, err := s.storage.Read(ctx, doc.StoragePath)
	if err != nil {
		return nil, errs.Persistence("read document", err)
	}
	return &FileContent{FileName: doc.FileName, ContentType: doc.ContentType, Content: content}, nil
}

// DownloadQuitus returns the stored quitus workbook
func (s *dossierServiceImpl) DownloadQuitus(ctx context.Context, p entity.Principal, id string) (*FileContent, error) {
	d, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}

	q, err := s.quitusRepo.GetByDossierID(ctx, d.ID)
	if err != nil {
		return nil, errs.Persistence("load quitus", err)
	}
	if q == nil {
		return nil, errs.NotFound("quitus of dossier %s", d.NumeroDossier)
	}

	content, err := s.storage.Read(ctx, q.FilePath)
	if err != nil {
		return nil, errs.Persistence("read quitus", err)
	}
	return &FileContent{FileName: q.FileName, ContentType: xlsxContentType, Content: content}, nil
}

func validFileName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, "/\\\x00")
}
