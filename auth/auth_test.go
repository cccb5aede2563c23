package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/vin-devs/learnsite/cart"
	"github.com/vin-devs/learnsite/catalog/seed"
	"github.com/vin-devs/learnsite/models"
	"github.com/vin-devs/learnsite/storage"
	"github.com/vin-devs/learnsite/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	svc   *Service
	store storage.Local
	carts *cart.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := storage.NewMemory()
	svc := NewService(testutil.NewDB(t), store, NewIssuer("test-secret", time.Hour), zap.NewNop())
	svc.cost = bcrypt.MinCost

	ds, err := seed.Load()
	require.NoError(t, err)
	require.NoError(t, svc.SeedDemoUsers(context.Background(), ds.Users))
	return &fixture{svc: svc, store: store, carts: cart.NewService(store, zap.NewNop())}
}

func TestIssuer_RoundTrip(t *testing.T) {
	issuer := NewIssuer("s", time.Hour)
	token, exp, err := issuer.Issue(Session{DeviceID: "device_1", UserID: "u1", Email: "a@b.c", Role: RoleUser})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	s, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, Session{DeviceID: "device_1", UserID: "u1", Email: "a@b.c", Role: RoleUser}, s)
	assert.True(t, s.SignedIn())
}

func TestIssuer_Expired(t *testing.T) {
	issuer := NewIssuer("s", time.Minute)
	token, _, err := issuer.Issue(Session{DeviceID: "device_1"})
	require.NoError(t, err)

	issuer.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_RequiresDevice(t *testing.T) {
	issuer := NewIssuer("s", time.Minute)
	token, _, err := issuer.Issue(Session{})
	require.NoError(t, err)
	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_Authenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin, err := f.svc.Authenticate(ctx, " Admin@LearnHub.com ", "password123")
	require.NoError(t, err)
	assert.Equal(t, []string{"course-1", "course-2", "book-1", "book-2"}, admin.Profile().Purchases)

	_, err = f.svc.Authenticate(ctx, "admin@learnhub.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.svc.Authenticate(ctx, "ghost@learnhub.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_SeedIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ds, err := seed.Load()
	require.NoError(t, err)
	require.NoError(t, f.svc.SeedDemoUsers(context.Background(), ds.Users))

	var purchases int64
	require.NoError(t, f.svc.db.Model(&models.Purchase{}).Count(&purchases).Error)
	assert.EqualValues(t, 4, purchases)
}

func TestService_Register(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.svc.Register(ctx, " Jane ", "Jane@Example.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "jane@example.com", u.Email)
	assert.Equal(t, "Jane", u.Name)

	_, err = f.svc.Register(ctx, "Jane", "jane@example.com", "secret1")
	assert.ErrorIs(t, err, ErrEmailTaken)
	_, err = f.svc.Register(ctx, "Admin", "admin@learnhub.com", "secret1")
	assert.ErrorIs(t, err, ErrEmailTaken)

	got, err := f.svc.Authenticate(ctx, "jane@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestService_SignInAndOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.svc.Authenticate(ctx, "user@example.com", "password123")
	require.NoError(t, err)

	token, deviceID, err := f.svc.SignIn(ctx, "", u)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(deviceID, "device_"))

	s, err := f.svc.Issuer().Parse(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, s.UserID)
	assert.Equal(t, deviceID, s.DeviceID)

	p, err := f.svc.Remembered(ctx, deviceID)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", p.Email)
	raw, err := f.store.Get(ctx, deviceID, storage.KeyUser)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "password")

	guest, err := f.svc.SignOut(ctx, deviceID)
	require.NoError(t, err)
	s, err = f.svc.Issuer().Parse(guest)
	require.NoError(t, err)
	assert.False(t, s.SignedIn())
	_, err = f.svc.Remembered(ctx, deviceID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestService_UpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u, err := f.svc.Authenticate(ctx, "user@example.com", "password123")
	require.NoError(t, err)

	updated, err := f.svc.UpdateProfile(ctx, u.ID, "John Doe", "")
	require.NoError(t, err)
	assert.Equal(t, "John Doe", updated.Name)
	assert.Equal(t, u.Avatar, updated.Avatar)

	_, err = f.svc.User(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func router(f *fixture) *gin.Engine {
	r := gin.New()
	session := func(c *gin.Context) {
		if h := c.GetHeader("Authorization"); h != "" {
			s, err := f.svc.Issuer().Parse(strings.TrimPrefix(h, "Bearer "))
			if err == nil {
				SetSession(c, s)
			}
		}
		c.Next()
	}
	r.Use(session)
	r.POST("/auth/device", CreateDevice(f.svc))
	r.POST("/auth/login", Login(f.svc, f.carts))
	r.POST("/auth/register", Register(f.svc))
	r.POST("/auth/forgot-password", ForgotPassword(f.svc))
	r.POST("/auth/logout", Logout(f.svc))
	r.GET("/auth/me", Me(f.svc))
	return r
}

func do(r *gin.Engine, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandlers_LoginFlow(t *testing.T) {
	f := newFixture(t)
	r := router(f)

	w := do(r, http.MethodPost, "/auth/device", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var device struct {
		DeviceID string `json:"device_id"`
		Token    string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &device))

	w = do(r, http.MethodPost, "/auth/login", `{"email":"admin@learnhub.com","password":"nope"}`, device.Token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"message":"Invalid email or password"}`, w.Body.String())

	w = do(r, http.MethodPost, "/auth/login", `{"email":"admin@learnhub.com"}`, device.Token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/auth/login", `{"email":"admin@learnhub.com","password":"password123"}`, device.Token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
	var login struct {
		Success  bool           `json:"success"`
		Message  string         `json:"message"`
		Token    string         `json:"token"`
		DeviceID string         `json:"device_id"`
		User     models.Profile `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	assert.True(t, login.Success)
	assert.Equal(t, "Login successful", login.Message)
	assert.Equal(t, device.DeviceID, login.DeviceID)
	assert.Len(t, login.User.Purchases, 4)

	w = do(r, http.MethodGet, "/auth/me", "", login.Token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "admin@learnhub.com")

	w = do(r, http.MethodGet, "/auth/me", "", device.Token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/auth/logout", "", login.Token)
	require.Equal(t, http.StatusOK, w.Code)
	_, err := f.store.Get(context.Background(), device.DeviceID, storage.KeyUser)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodPost, "/auth/logout", "", "").Code)
}

func TestHandlers_LoginMergesGuestCart(t *testing.T) {
	f := newFixture(t)
	r := router(f)
	ctx := context.Background()

	old, oldToken, err := f.svc.CreateDevice(ctx)
	require.NoError(t, err)
	require.NoError(t, f.carts.Do(ctx, old.ID, func(c *cart.Cart) error {
		c.AddItem(cart.NewItem{ProductID: "book-3", Price: 39.99})
		return nil
	}))

	type loginResult struct {
		DeviceID    string `json:"device_id"`
		MergeStatus string `json:"merge_status"`
	}

	// A bare device id is not proof of ownership.
	w := do(r, http.MethodPost, "/auth/login",
		`{"email":"user@example.com","password":"password123","guest_token":"`+old.ID+`"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	var rejected loginResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rejected))
	assert.Equal(t, "merge-failed", rejected.MergeStatus)
	snap, err := f.carts.Snapshot(ctx, rejected.DeviceID)
	require.NoError(t, err)
	assert.Zero(t, snap.TotalItems)

	w = do(r, http.MethodPost, "/auth/login",
		`{"email":"user@example.com","password":"password123","guest_token":"`+oldToken+`"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	var login loginResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	assert.Equal(t, "merged-success", login.MergeStatus)

	snap, err = f.carts.Snapshot(ctx, login.DeviceID)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.TotalItems)
}

func TestService_GuestDevice(t *testing.T) {
	f := newFixture(t)
	device, token, err := f.svc.CreateDevice(context.Background())
	require.NoError(t, err)

	id, err := f.svc.GuestDevice(token)
	require.NoError(t, err)
	assert.Equal(t, device.ID, id)

	_, err = f.svc.GuestDevice(device.ID)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, _, _ := NewIssuer("other-secret", time.Hour).Issue(Session{DeviceID: device.ID})
	_, err = f.svc.GuestDevice(other)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHandlers_Register(t *testing.T) {
	f := newFixture(t)
	r := router(f)

	w := do(r, http.MethodPost, "/auth/register", `{"name":"Admin","email":"admin@learnhub.com","password":"password123"}`, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"message":"User with this email already exists"}`, w.Body.String())

	w = do(r, http.MethodPost, "/auth/register", `{"name":"New","email":"not-an-email","password":"password123"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/auth/register", `{"name":"New","email":"new@example.com","password":"password123"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Success bool           `json:"success"`
		Message string         `json:"message"`
		User    models.Profile `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Account created successfully", resp.Message)
	assert.NotEmpty(t, resp.User.ID)
	assert.Empty(t, resp.User.Purchases)
}

func TestHandlers_ForgotPassword(t *testing.T) {
	r := router(newFixture(t))
	for _, email := range []string{"admin@learnhub.com", "nobody@nowhere.io"} {
		w := do(r, http.MethodPost, "/auth/forgot-password", `{"email":"`+email+`"}`, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true,"message":"Password reset email sent"}`, w.Body.String())
	}
}
