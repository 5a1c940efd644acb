package handlers_test

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/conadsciacca/totem-voti/internal/config"
	"github.com/conadsciacca/totem-voti/internal/handlers"
	"github.com/conadsciacca/totem-voti/internal/middleware"
	"github.com/conadsciacca/totem-voti/internal/models"
	"github.com/conadsciacca/totem-voti/internal/repositories"
	"github.com/conadsciacca/totem-voti/internal/services"
	"github.com/conadsciacca/totem-voti/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const seedUsers = "admin_sciacca:mypass1:admin:pdv_sciacca," +
	"admin_sancipirello:mypass2:admin:pdv_sancipirello," +
	"user_sciacca:pass1:store:pdv_sciacca," +
	"user_sancipirello:pass2:store:pdv_sancipirello"

type testEnv struct {
	app       *fiber.App
	db        *gorm.DB
	uploadDir string
}

// setupApp wires the full application against a fresh in-memory SQLite
// database and the standard seed accounts.
func setupApp(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&models.User{}, &models.Employee{}, &models.Vote{}))

	uploadDir := t.TempDir()
	photos, err := storage.NewPhotoStore(uploadDir)
	assert.NoError(t, err)

	userRepo := repositories.NewGORMUserRepository(db)
	employeeRepo := repositories.NewGORMEmployeeRepository(db)
	voteRepo := repositories.NewGORMVoteRepository(db)

	authService := services.NewAuthService(userRepo, "test_session_secret")
	employeeService := services.NewEmployeeService(employeeRepo, voteRepo, photos)
	voteService := services.NewVoteService(voteRepo, nil)
	reportService := services.NewReportService(voteRepo)

	seeds, err := config.ParseSeedUsers(seedUsers)
	assert.NoError(t, err)
	assert.NoError(t, authService.EnsureSeedUsers(seeds))

	app := fiber.New()
	handlers.NewAuthHandler(authService).RegisterRoutes(app)
	handlers.NewScanHandler(employeeService, voteService).RegisterRoutes(app, authService)
	handlers.NewAdminHandler(employeeService).RegisterRoutes(app, authService)
	handlers.NewReportHandler(reportService).RegisterRoutes(app, authService)

	return &testEnv{app: app, db: db, uploadDir: uploadDir}
}

// login posts the login form and returns the session cookie.
func login(t *testing.T, app *fiber.App, username, password string) *http.Cookie {
	t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	for _, c := range resp.Cookies() {
		if c.Name == middleware.SessionCookie && c.Value != "" {
			return c
		}
	}
	t.Fatalf("no session cookie set for %s", username)
	return nil
}

func seedEmployee(t *testing.T, db *gorm.DB, name, store string) *models.Employee {
	t.Helper()
	e := &models.Employee{Name: name, Photo: name + ".jpg", Store: store}
	assert.NoError(t, db.Create(e).Error)
	return e
}

func TestLogin(t *testing.T) {
	env := setupApp(t)

	// Wrong credentials: generic 401.
	form := url.Values{"username": {"admin_sciacca"}, "password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Unknown user: indistinguishable from wrong password.
	form = url.Values{"username": {"nobody"}, "password": {"wrong"}}
	req = httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err = env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Admin lands on /admin, store user on /.
	form = url.Values{"username": {"admin_sciacca"}, "password": {"mypass1"}}
	req = httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err = env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/admin", resp.Header.Get("Location"))

	form = url.Values{"username": {"user_sciacca"}, "password": {"pass1"}}
	req = httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err = env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestAdminRequiresAdminRole(t *testing.T) {
	env := setupApp(t)

	// No session at all: redirect to login.
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	resp, err := env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	// Store-role session: same redirect, nothing leaked, nothing mutated.
	cookie := login(t, env.app, "user_sciacca", "pass1")
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(cookie)
	resp, err = env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	// Admin session passes.
	cookie = login(t, env.app, "admin_sciacca", "mypass1")
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(cookie)
	resp, err = env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogoutClearsSession(t *testing.T) {
	env := setupApp(t)
	cookie := login(t, env.app, "admin_sciacca", "mypass1")

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	req.AddCookie(cookie)
	resp, err := env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	var cleared *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == middleware.SessionCookie {
			cleared = c
		}
	}
	if assert.NotNil(t, cleared) {
		assert.Empty(t, cleared.Value)
	}
}

func TestScanGating(t *testing.T) {
	env := setupApp(t)
	cookie := login(t, env.app, "user_sciacca", "pass1")

	// 12 digits: silently re-shown scan form, no redirect.
	form := url.Values{"codice": {"123456789012"}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	resp, err := env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Non-numeric: same.
	form = url.Values{"codice": {"123456789012a"}}
	req = httptest.NewRequest(http.MethodPost, "/scan", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	resp, err = env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// 13 digits: redirected to the employee list.
	form = url.Values{"codice": {"1234567890123"}}
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	resp, err = env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/dipendenti/1234567890123", resp.Header.Get("Location"))
}

func TestVoteIsIdempotent(t *testing.T) {
	env := setupApp(t)
	e := seedEmployee(t, env.db, "Mario", "pdv_sciacca")
	cookie := login(t, env.app, "user_sciacca", "pass1")

	votePath := fmt.Sprintf("/vota/1234567890123/%d", e.ID)

	// First vote: score 5, success.
	form := url.Values{"voto": {"5"}}
	req := httptest.NewRequest(http.MethodPost, votePath, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	resp, err := env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/dipendenti/1234567890123", resp.Header.Get("Location"))

	// The employee now shows up as already voted.
	req = httptest.NewRequest(http.MethodGet, "/dipendenti/1234567890123", nil)
	req.AddCookie(cookie)
	resp, err = env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var page struct {
		Votati []uint `json:"votati"`
	}
	body, _ := io.ReadAll(resp.Body)
	assert.NoError(t, json.Unmarshal(body, &page))
	assert.Contains(t, page.Votati, e.ID)

	// Second vote with another score: reported as success, stored score
	// unchanged, still one row.
	form = url.Values{"voto": {"2"}}
	req = httptest.NewRequest(http.MethodPost, votePath, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	resp, err = env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	var votes []models.Vote
	assert.NoError(t, env.db.Find(&votes).Error)
	assert.Len(t, votes, 1)
	assert.Equal(t, 5, votes[0].Score)
}

func TestVoteRejectsOutOfRangeScore(t *testing.T) {
	env := setupApp(t)
	e := seedEmployee(t, env.db, "Mario", "pdv_sciacca")
	cookie := login(t, env.app, "user_sciacca", "pass1")

	form := url.Values{"voto": {"9"}}
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/vota/1234567890123/%d", e.ID), strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	resp, err := env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode) // vote form re-shown

	var count int64
	assert.NoError(t, env.db.Model(&models.Vote{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestAdminCreateEmployee(t *testing.T) {
	env := setupApp(t)
	cookie := login(t, env.app, "admin_sciacca", "mypass1")

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	assert.NoError(t, w.WriteField("nome", "Giulia"))
	fw, err := w.CreateFormFile("foto", "giulia.png")
	assert.NoError(t, err)
	_, err = fw.Write([]byte("png-bytes"))
	assert.NoError(t, err)
	assert.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/admin", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.AddCookie(cookie)
	resp, err := env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/admin", resp.Header.Get("Location"))

	var employees []models.Employee
	assert.NoError(t, env.db.Find(&employees).Error)
	assert.Len(t, employees, 1)
	assert.Equal(t, "Giulia", employees[0].Name)
	assert.Equal(t, "giulia.png", employees[0].Photo)
	assert.Equal(t, "pdv_sciacca", employees[0].Store)
}

func TestAdminCrossTenantIsNoOp(t *testing.T) {
	env := setupApp(t)
	other := seedEmployee(t, env.db, "Carla", "pdv_sancipirello")
	cookie := login(t, env.app, "admin_sciacca", "mypass1")

	// Deleting another store's employee changes nothing.
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/delete/%d", other.ID), nil)
	req.AddCookie(cookie)
	resp, err := env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	var count int64
	assert.NoError(t, env.db.Model(&models.Employee{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	// Editing it is a no-op too.
	form := url.Values{"nome": {"Hacked"}}
	req = httptest.NewRequest(http.MethodPost, fmt.Sprintf("/edit/%d", other.ID), strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	resp, err = env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	var unchanged models.Employee
	assert.NoError(t, env.db.First(&unchanged, other.ID).Error)
	assert.Equal(t, "Carla", unchanged.Name)
}

func TestStatsAndExport(t *testing.T) {
	env := setupApp(t)
	e := seedEmployee(t, env.db, "Anna", "pdv_sciacca")
	seedEmployee(t, env.db, "Bruno", "pdv_sciacca")

	today := time.Now().Format(models.VoteDateLayout)
	assert.NoError(t, env.db.Create(&models.Vote{FidelityCode: "1111111111111", EmployeeID: e.ID, Score: 5, VoteDate: today}).Error)
	assert.NoError(t, env.db.Create(&models.Vote{FidelityCode: "2222222222222", EmployeeID: e.ID, Score: 4, VoteDate: today}).Error)

	cookie := login(t, env.app, "admin_sciacca", "mypass1")

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	req.AddCookie(cookie)
	resp, err := env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var page struct {
		Stats []models.EmployeeStats `json:"stats"`
	}
	body, _ := io.ReadAll(resp.Body)
	assert.NoError(t, json.Unmarshal(body, &page))
	assert.Len(t, page.Stats, 2)
	assert.Equal(t, "Anna", page.Stats[0].EmployeeName)
	assert.Equal(t, 2, page.Stats[0].VoteCount)
	if assert.NotNil(t, page.Stats[0].AverageScore) {
		assert.InDelta(t, 4.5, *page.Stats[0].AverageScore, 0.001)
	}
	assert.Equal(t, 0, page.Stats[1].VoteCount)
	assert.Nil(t, page.Stats[1].AverageScore)

	// CSV export: same filter, one row per vote, no fidelity column.
	req = httptest.NewRequest(http.MethodGet, "/export_csv", nil)
	req.AddCookie(cookie)
	resp, err = env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	expectedName := fmt.Sprintf("voti_%s.csv", time.Now().Format("20060102"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), expectedName)

	body, _ = io.ReadAll(resp.Body)
	records, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
	assert.NoError(t, err)
	assert.Len(t, records, 3)
	assert.Equal(t, []string{"dipendente", "voto", "data"}, records[0])
}

func TestResetVotiIsTenantScoped(t *testing.T) {
	env := setupApp(t)
	mine := seedEmployee(t, env.db, "Anna", "pdv_sciacca")
	theirs := seedEmployee(t, env.db, "Carla", "pdv_sancipirello")

	today := time.Now().Format(models.VoteDateLayout)
	assert.NoError(t, env.db.Create(&models.Vote{FidelityCode: "1111111111111", EmployeeID: mine.ID, Score: 5, VoteDate: today}).Error)
	assert.NoError(t, env.db.Create(&models.Vote{FidelityCode: "2222222222222", EmployeeID: theirs.ID, Score: 4, VoteDate: today}).Error)

	cookie := login(t, env.app, "admin_sciacca", "mypass1")
	req := httptest.NewRequest(http.MethodPost, "/reset_voti", nil)
	req.AddCookie(cookie)
	resp, err := env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/stats", resp.Header.Get("Location"))

	var votes []models.Vote
	assert.NoError(t, env.db.Find(&votes).Error)
	assert.Len(t, votes, 1)
	assert.Equal(t, theirs.ID, votes[0].EmployeeID)
}
