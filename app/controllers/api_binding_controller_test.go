package controllers

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/NetPortal/app/models"
)

type envelope struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

func decodeEnvelope(t *testing.T, body string) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal([]byte(body), &env))
	return env
}

func bindingRoutes(bc *BindingAPIController) func(app *fiber.App) {
	return func(app *fiber.App) {
		app.Get("/bindings", bc.HandleList)
		app.Post("/bindings", bc.HandleBind)
		app.Get("/bindings/:id", bc.HandleShow)
		app.Delete("/bindings/:id", bc.HandleUnbind)
	}
}

func TestBindingAPIRequiresUser(t *testing.T) {
	f := newCtrlFixture(t)
	app := f.app(nil, bindingRoutes(NewBindingAPIController(f.deps)))

	resp := doJSON(t, app, fiber.MethodGet, "/bindings", "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	env := decodeEnvelope(t, readBody(t, resp))
	assert.Equal(t, "error", env.Status)
	assert.Equal(t, "Unauthenticated.", env.Message)
}

func TestBindingAPIBindFlow(t *testing.T) {
	f := newCtrlFixture(t)
	account := f.account(t, "ACC-100", "pppoe-pass")
	app := f.app(f.user, bindingRoutes(NewBindingAPIController(f.deps)))

	resp := doJSON(t, app, fiber.MethodGet, "/bindings", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	env := decodeEnvelope(t, readBody(t, resp))
	assert.Equal(t, "Bound users retrieved successfully", env.Message)
	assert.JSONEq(t, `{"bind_users":[],"count":0}`, string(env.Data))

	tests := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{"missing fields", `{}`, fiber.StatusUnprocessableEntity, "Validation failed."},
		{"unknown account", `{"account_id":"NOPE","password":"x"}`, fiber.StatusNotFound, "Account not found. Please check your account ID."},
		{"wrong password", `{"account_id":"ACC-100","password":"wrong"}`, fiber.StatusUnauthorized, "Invalid password."},
		{"bound", `{"account_id":"ACC-100","password":"pppoe-pass"}`, fiber.StatusCreated, "Account bound successfully"},
		{"bound twice", `{"account_id":"ACC-100","password":"pppoe-pass"}`, fiber.StatusBadRequest, "This account is already bound to your profile."},
	}
	var bindID uint
	for _, tc := range tests {
		resp := doJSON(t, app, fiber.MethodPost, "/bindings", tc.body)
		assert.Equal(t, tc.status, resp.StatusCode, tc.name)
		env := decodeEnvelope(t, readBody(t, resp))
		assert.Equal(t, tc.message, env.Message, tc.name)

		switch tc.status {
		case fiber.StatusUnprocessableEntity:
			assert.Contains(t, env.Errors, "account_id")
			assert.Contains(t, env.Errors, "password")
		case fiber.StatusCreated:
			var data struct {
				BindID   uint `json:"bind_id"`
				BindUser struct {
					ID        uint   `json:"id"`
					AccountID string `json:"account_id"`
				} `json:"bind_user"`
			}
			require.NoError(t, json.Unmarshal(env.Data, &data))
			assert.Equal(t, account.ID, data.BindUser.ID)
			assert.Equal(t, "ACC-100", data.BindUser.AccountID)
			bindID = data.BindID
		}
	}
	require.NotZero(t, bindID)

	resp = doJSON(t, app, fiber.MethodGet, fmt.Sprintf("/bindings/%d", account.ID), "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, fiber.MethodGet, "/bindings/9999", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Bound user not found.", decodeEnvelope(t, readBody(t, resp)).Message)

	resp = doJSON(t, app, fiber.MethodDelete, "/bindings/9999", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Binding not found.", decodeEnvelope(t, readBody(t, resp)).Message)

	resp = doJSON(t, app, fiber.MethodDelete, fmt.Sprintf("/bindings/%d", bindID), "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Account unbound successfully", decodeEnvelope(t, readBody(t, resp)).Message)
}

func TestBindingAPIShowForeignAccount(t *testing.T) {
	f := newCtrlFixture(t)
	account := f.account(t, "ACC-200", "pw")
	app := f.app(f.user, bindingRoutes(NewBindingAPIController(f.deps)))

	resp := doJSON(t, app, fiber.MethodGet, fmt.Sprintf("/bindings/%d", account.ID), "")
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "You do not have access to this account.", decodeEnvelope(t, readBody(t, resp)).Message)
}

func TestBindingAPIAcceptsForm(t *testing.T) {
	f := newCtrlFixture(t)
	f.account(t, "ACC-300", "pw")
	app := f.app(f.user, bindingRoutes(NewBindingAPIController(f.deps)))

	resp := postForm(t, app, "/bindings", map[string][]string{"account_id": {"ACC-300"}, "password": {"pw"}})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var fresh models.User
	require.NoError(t, f.db.First(&fresh, f.user.ID).Error)
	assert.True(t, fresh.HasPrimaryBinding())
}
