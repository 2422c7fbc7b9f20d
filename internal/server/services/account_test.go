package services

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/avilks/passvault/internal/common"
	"github.com/avilks/passvault/internal/dbx"
	"github.com/avilks/passvault/internal/logging"
	"github.com/avilks/passvault/internal/server/auth"
	"github.com/avilks/passvault/internal/server/config"
	"github.com/avilks/passvault/internal/server/email"
	"github.com/avilks/passvault/internal/server/models"
	accountsrepo "github.com/avilks/passvault/internal/server/repositories/accounts"
	attachmentsrepo "github.com/avilks/passvault/internal/server/repositories/attachments"
	authenticatorsrepo "github.com/avilks/passvault/internal/server/repositories/authenticators"
	credentialsrepo "github.com/avilks/passvault/internal/server/repositories/credentials"
	"github.com/avilks/passvault/internal/server/repositories/repomanager"
	servicesrepo "github.com/avilks/passvault/internal/server/repositories/services"
)

// --- helpers ---

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type fakeAccountsRepo struct {
	createErrs   []error
	createdRoles []models.Role
	createCalls  int

	getByEmailOut *models.Account
	getByEmailErr error

	getByIDOut *models.Account
	getByIDErr error

	ownerExists    bool
	ownerExistsErr error

	clearTokenErr error
	clearedTokens []string
}

func (f *fakeAccountsRepo) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	f.createCalls++
	f.createdRoles = append(f.createdRoles, a.Role)
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	out := *a
	out.ID = "acc-1"
	return &out, nil
}

func (f *fakeAccountsRepo) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	if f.getByEmailErr != nil {
		return nil, f.getByEmailErr
	}
	return f.getByEmailOut, nil
}

func (f *fakeAccountsRepo) GetByID(ctx context.Context, id string) (*models.Account, error) {
	if f.getByIDErr != nil {
		return nil, f.getByIDErr
	}
	return f.getByIDOut, nil
}

func (f *fakeAccountsRepo) OwnerExists(ctx context.Context) (bool, error) {
	return f.ownerExists, f.ownerExistsErr
}

func (f *fakeAccountsRepo) ClearVerificationToken(ctx context.Context, token string) error {
	f.clearedTokens = append(f.clearedTokens, token)
	return f.clearTokenErr
}

type fakeServicesRepo struct {
	createOrGetOut *models.Service
	createOrGetErr error

	getByIDOut *models.Service
	getByIDErr error

	listOut []*models.Service
	listErr error
}

func (f *fakeServicesRepo) CreateOrGet(ctx context.Context, s *models.Service) (*models.Service, error) {
	if f.createOrGetErr != nil {
		return nil, f.createOrGetErr
	}
	return f.createOrGetOut, nil
}

func (f *fakeServicesRepo) GetByID(ctx context.Context, id string) (*models.Service, error) {
	if f.getByIDErr != nil {
		return nil, f.getByIDErr
	}
	return f.getByIDOut, nil
}

func (f *fakeServicesRepo) ListByAccount(ctx context.Context, accountID string) ([]*models.Service, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listOut, nil
}

type fakeCredentialsRepo struct {
	created   *models.Credential
	createErr error

	listOut      []*models.Credential
	listErr      error
	lastDeviceID string
}

func (f *fakeCredentialsRepo) Create(ctx context.Context, c *models.Credential) (*models.Credential, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = c
	return c, nil
}

func (f *fakeCredentialsRepo) ListByService(ctx context.Context, serviceID, deviceID string) ([]*models.Credential, error) {
	f.lastDeviceID = deviceID
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listOut, nil
}

type fakeAuthenticatorsRepo struct {
	created   *models.Authenticator
	createErr error

	listOut      []*models.Authenticator
	listErr      error
	lastDeviceID string
}

func (f *fakeAuthenticatorsRepo) Create(ctx context.Context, a *models.Authenticator) (*models.Authenticator, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = a
	return a, nil
}

func (f *fakeAuthenticatorsRepo) ListByService(ctx context.Context, serviceID, deviceID string) ([]*models.Authenticator, error) {
	f.lastDeviceID = deviceID
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listOut, nil
}

type fakeAttachmentsRepo struct {
	created   *models.Attachment
	createErr error

	getByIDOut *models.Attachment
	getByIDErr error

	listOut []*models.Attachment
	listErr error
}

func (f *fakeAttachmentsRepo) Create(ctx context.Context, a *models.Attachment) (*models.Attachment, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = a
	return a, nil
}

func (f *fakeAttachmentsRepo) GetByID(ctx context.Context, id string) (*models.Attachment, error) {
	if f.getByIDErr != nil {
		return nil, f.getByIDErr
	}
	return f.getByIDOut, nil
}

func (f *fakeAttachmentsRepo) ListByService(ctx context.Context, serviceID string) ([]*models.Attachment, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listOut, nil
}

type fakeRepoManager struct {
	accounts       *fakeAccountsRepo
	services       *fakeServicesRepo
	credentials    *fakeCredentialsRepo
	authenticators *fakeAuthenticatorsRepo
	attachments    *fakeAttachmentsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Accounts(db dbx.DBTX) accountsrepo.Repository { return m.accounts }
func (m *fakeRepoManager) Services(db dbx.DBTX) servicesrepo.Repository { return m.services }
func (m *fakeRepoManager) Credentials(db dbx.DBTX) credentialsrepo.Repository {
	return m.credentials
}
func (m *fakeRepoManager) Authenticators(db dbx.DBTX) authenticatorsrepo.Repository {
	return m.authenticators
}
func (m *fakeRepoManager) Attachments(db dbx.DBTX) attachmentsrepo.Repository {
	return m.attachments
}

var _ repomanager.RepositoryManager = (*fakeRepoManager)(nil)

type fakeSender struct {
	sent []email.Message
	err  error
}

func (f *fakeSender) Send(ctx context.Context, msg email.Message) error {
	f.sent = append(f.sent, msg)
	return f.err
}

func newAccountService(t *testing.T, db *sql.DB, rm repomanager.RepositoryManager, sender email.Sender) *AccountService {
	t.Helper()
	cfg := &config.Config{
		SecretKey:               "k",
		SessionValidityDuration: time.Hour,
	}
	return NewAccountService(db, rm, sender, testLogger(), cfg)
}

// stubKeyPair replaces RSA generation so registration tests stay fast.
func stubKeyPair(t *testing.T, err error) {
	t.Helper()
	orig := issueKeyPair
	t.Cleanup(func() { issueKeyPair = orig })
	issueKeyPair = func() ([]byte, []byte, error) {
		if err != nil {
			return nil, nil, err
		}
		return []byte("PUBLIC"), []byte("PRIVATE"), nil
	}
}

// --- tests ---

func TestRegister_FirstAccountBecomesOwner(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	stubKeyPair(t, nil)

	rm := &fakeRepoManager{accounts: &fakeAccountsRepo{ownerExists: false}}
	sender := &fakeSender{}
	s := newAccountService(t, db, rm, sender)

	res, err := s.Register(context.Background(), "alice", "alice@example.com", "pw")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if res.Role != models.RoleOwner {
		t.Fatalf("want owner role, got %q", res.Role)
	}
	if res.PrivateKey != "PRIVATE" {
		t.Fatalf("private key not returned")
	}
	if len(sender.sent) != 1 || sender.sent[0].To != "alice@example.com" || sender.sent[0].Token == "" {
		t.Fatalf("verification email not sent: %+v", sender.sent)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestRegister_OwnerExistsBecomesUser(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	stubKeyPair(t, nil)

	rm := &fakeRepoManager{accounts: &fakeAccountsRepo{ownerExists: true}}
	s := newAccountService(t, db, rm, &fakeSender{})

	res, err := s.Register(context.Background(), "bob", "bob@example.com", "pw")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if res.Role != models.RoleUser {
		t.Fatalf("want user role, got %q", res.Role)
	}
}

func TestRegister_OwnerRaceRetriesAsUser(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	// First insert loses the owner race and rolls back, the retry commits.
	mock.ExpectBegin()
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectCommit()

	stubKeyPair(t, nil)

	accounts := &fakeAccountsRepo{
		ownerExists: false,
		createErrs:  []error{accountsrepo.ErrOwnerTaken, nil},
	}
	rm := &fakeRepoManager{accounts: accounts}
	s := newAccountService(t, db, rm, &fakeSender{})

	res, err := s.Register(context.Background(), "carol", "carol@example.com", "pw")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if res.Role != models.RoleUser {
		t.Fatalf("race loser must get user role, got %q", res.Role)
	}
	if len(accounts.createdRoles) != 2 ||
		accounts.createdRoles[0] != models.RoleOwner ||
		accounts.createdRoles[1] != models.RoleUser {
		t.Fatalf("unexpected insert sequence: %v", accounts.createdRoles)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	s := newAccountService(t, db, &fakeRepoManager{accounts: &fakeAccountsRepo{}}, &fakeSender{})

	if _, err := s.Register(context.Background(), "", "a@b.c", "pw"); !errors.Is(err, common.ErrValidation) {
		t.Fatalf("missing name: want ErrValidation, got %v", err)
	}
	if _, err := s.Register(context.Background(), "a", "", "pw"); !errors.Is(err, common.ErrValidation) {
		t.Fatalf("missing email: want ErrValidation, got %v", err)
	}
	if _, err := s.Register(context.Background(), "a", "a@b.c", ""); !errors.Is(err, common.ErrValidation) {
		t.Fatalf("missing password: want ErrValidation, got %v", err)
	}
}

func TestRegister_KeyPairFailureWritesNothing(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	stubKeyPair(t, errBoom{})

	accounts := &fakeAccountsRepo{}
	s := newAccountService(t, db, &fakeRepoManager{accounts: accounts}, &fakeSender{})

	_, err := s.Register(context.Background(), "dave", "dave@example.com", "pw")
	if !errors.Is(err, common.ErrEncryptionFailure) {
		t.Fatalf("want ErrEncryptionFailure, got %v", err)
	}
	if accounts.createCalls != 0 {
		t.Fatalf("no insert may happen after key failure, got %d", accounts.createCalls)
	}
}

func TestRegister_EmailFailureIsNotFatal(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	stubKeyPair(t, nil)

	sender := &fakeSender{err: errBoom{}}
	s := newAccountService(t, db, &fakeRepoManager{accounts: &fakeAccountsRepo{}}, sender)

	res, err := s.Register(context.Background(), "erin", "erin@example.com", "pw")
	if err != nil {
		t.Fatalf("delivery failure must not fail registration: %v", err)
	}
	if res.AccountID == "" {
		t.Fatalf("missing account id")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	stubKeyPair(t, nil)

	accounts := &fakeAccountsRepo{createErrs: []error{common.ErrDuplicateEmail}}
	s := newAccountService(t, db, &fakeRepoManager{accounts: accounts}, &fakeSender{})

	_, err := s.Register(context.Background(), "frank", "frank@example.com", "pw")
	if !errors.Is(err, common.ErrDuplicateEmail) {
		t.Fatalf("want ErrDuplicateEmail, got %v", err)
	}
}

func TestLogin_Flows(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	hash, err := auth.HashPassword("right")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	verified := &models.Account{ID: "acc-1", Name: "alice", Email: "alice@example.com", PasswordHash: hash}

	// missing signing secret wins over everything else
	sNoSecret := NewAccountService(db, &fakeRepoManager{accounts: &fakeAccountsRepo{}}, &fakeSender{}, testLogger(), &config.Config{})
	if _, err := sNoSecret.Login(context.Background(), "alice@example.com", "right"); !errors.Is(err, common.ErrConfiguration) {
		t.Fatalf("missing secret: want ErrConfiguration, got %v", err)
	}

	// missing fields
	sOK := newAccountService(t, db, &fakeRepoManager{accounts: &fakeAccountsRepo{getByEmailOut: verified}}, &fakeSender{})
	if _, err := sOK.Login(context.Background(), "", "pw"); !errors.Is(err, common.ErrValidation) {
		t.Fatalf("missing email: want ErrValidation, got %v", err)
	}
	if _, err := sOK.Login(context.Background(), "a@b.c", ""); !errors.Is(err, common.ErrValidation) {
		t.Fatalf("missing password: want ErrValidation, got %v", err)
	}

	// unknown email and wrong password collapse to the same error
	sNF := newAccountService(t, db, &fakeRepoManager{accounts: &fakeAccountsRepo{getByEmailErr: common.ErrNotFound}}, &fakeSender{})
	if _, err := sNF.Login(context.Background(), "ghost@example.com", "pw"); !errors.Is(err, common.ErrInvalidCredentials) {
		t.Fatalf("unknown email: want ErrInvalidCredentials, got %v", err)
	}
	if _, err := sOK.Login(context.Background(), "alice@example.com", "wrong"); !errors.Is(err, common.ErrInvalidCredentials) {
		t.Fatalf("wrong password: want ErrInvalidCredentials, got %v", err)
	}

	// repo failure stays internal
	sIE := newAccountService(t, db, &fakeRepoManager{accounts: &fakeAccountsRepo{getByEmailErr: errBoom{}}}, &fakeSender{})
	if _, err := sIE.Login(context.Background(), "alice@example.com", "right"); !errors.Is(err, common.ErrInternal) {
		t.Fatalf("repo error: want ErrInternal, got %v", err)
	}

	// pending verification blocks login even with the right password
	pending := &models.Account{ID: "acc-2", Email: "bob@example.com", PasswordHash: hash, VerificationToken: "tok"}
	sUV := newAccountService(t, db, &fakeRepoManager{accounts: &fakeAccountsRepo{getByEmailOut: pending}}, &fakeSender{})
	if _, err := sUV.Login(context.Background(), "bob@example.com", "right"); !errors.Is(err, common.ErrUnverifiedAccount) {
		t.Fatalf("pending token: want ErrUnverifiedAccount, got %v", err)
	}

	token, err := sOK.Login(context.Background(), "alice@example.com", "right")
	if err != nil || token == "" {
		t.Fatalf("Login success: token=%q err=%v", token, err)
	}
	claims, err := auth.ParseToken(token, []byte("k"))
	if err != nil || claims.AccountID != "acc-1" {
		t.Fatalf("token not parseable: claims=%+v err=%v", claims, err)
	}
}

func TestVerifyEmail(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	accounts := &fakeAccountsRepo{}
	s := newAccountService(t, db, &fakeRepoManager{accounts: accounts}, &fakeSender{})

	if err := s.VerifyEmail(context.Background(), ""); !errors.Is(err, common.ErrValidation) {
		t.Fatalf("empty token: want ErrValidation, got %v", err)
	}

	if err := s.VerifyEmail(context.Background(), "tok-1"); err != nil {
		t.Fatalf("VerifyEmail error: %v", err)
	}
	if len(accounts.clearedTokens) != 1 || accounts.clearedTokens[0] != "tok-1" {
		t.Fatalf("token not forwarded: %v", accounts.clearedTokens)
	}

	accounts.clearTokenErr = common.ErrNotFound
	if err := s.VerifyEmail(context.Background(), "stale"); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("stale token: want ErrNotFound, got %v", err)
	}
}
