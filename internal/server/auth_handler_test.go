package server_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/appleboy/gofight"
	"github.com/mdouchement/safehaven/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fastjson"
)

func TestRequestRegistration(t *testing.T) {
	engine, _ := setup(t)

	params := gofight.D{
		"user_id": userID,
	}
	gofight.New().POST("/profiles").SetJSON(params).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusBadRequest, r.Code)
		assert.JSONEq(t, `{"error":{"tag":"validation","message":"password must not be blank"}}`, r.Body.String())
	})

	params["password"] = password
	params["duress_password"] = password
	gofight.New().POST("/profiles").SetJSON(params).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusBadRequest, r.Code)
		assert.JSONEq(t, `{"error":{"tag":"validation","message":"duress password must differ from the password"}}`, r.Body.String())
	})

	params["duress_password"] = duressPassword
	gofight.New().POST("/profiles").SetJSON(params).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusCreated, r.Code)

		v := parse(t, r.Body.String())
		assert.Equal(t, userID, string(v.GetStringBytes("user_id")))
		assert.False(t, v.GetBool("settings", "gps_enabled"))
		assert.False(t, v.GetBool("settings", "auto_delete_enabled"))
		assert.Equal(t, model.DefaultAutoDeleteDays, v.GetInt("settings", "auto_delete_days"))
		assert.Nil(t, v.Get("duress_user_id"))
		assert.Nil(t, v.Get("password_hash"))
	})

	gofight.New().POST("/profiles").SetJSON(params).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusBadRequest, r.Code)
		assert.Contains(t, r.Body.String(), "is already taken")
	})
}

func TestRequestLogin(t *testing.T) {
	engine, ctrl := setup(t)
	createProfile(t, ctrl)

	gofight.New().POST("/auth/sign_in").SetJSON(gofight.D{"user_id": userID}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusBadRequest, r.Code)
		assert.JSONEq(t, `{"error":{"tag":"validation","message":"No user id or password provided."}}`, r.Body.String())
	})

	for _, params := range []gofight.D{
		{"user_id": userID, "password": "wrong"},
		{"user_id": "nobody", "password": password},
	} {
		gofight.New().POST("/auth/sign_in").SetJSON(params).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
			assert.Equal(t, http.StatusUnauthorized, r.Code)
			assert.JSONEq(t, `{"error":{"tag":"invalid-auth","message":"Invalid login credentials."}}`, r.Body.String())
		})
	}

	realToken := signIn(t, engine, password)
	duressToken := signIn(t, engine, duressPassword)
	assert.NotEqual(t, realToken, duressToken)

	// Both sessions render the same way.
	for _, token := range []string{realToken, duressToken} {
		gofight.New().GET("/session").SetHeader(bearer(token)).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
			assert.Equal(t, http.StatusOK, r.Code)

			v := parse(t, r.Body.String())
			keys := []string{}
			v.GetObject().Visit(func(key []byte, _ *fastjson.Value) {
				keys = append(keys, string(key))
			})
			assert.ElementsMatch(t, []string{"uuid", "created_at", "expire_at", "user_agent"}, keys)
		})

		gofight.New().GET("/profile").SetHeader(bearer(token)).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
			assert.Equal(t, http.StatusOK, r.Code)
			assert.Equal(t, userID, string(parse(t, r.Body.String()).GetStringBytes("user_id")))
		})
	}
}

func TestRequestLogin_SilentAlert(t *testing.T) {
	engine, ctrl := setup(t)
	createProfile(t, ctrl)
	realToken := signIn(t, engine, password)

	gofight.New().PATCH("/profile").SetHeader(with(bearer(realToken))).SetJSON(gofight.D{"silent_alert_on_duress": true}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)
		assert.True(t, parse(t, r.Body.String()).GetBool("settings", "silent_alert_on_duress"))
	})

	params := gofight.D{"name": "Sam", "phone_number": "+15550100"}
	gofight.New().POST("/contacts").SetHeader(bearer(realToken)).SetJSON(params).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusCreated, r.Code)
	})

	signIn(t, engine, duressPassword)

	assert.Eventually(t, func() bool {
		session, err := ctrl.Alerts.Active(context.Background(), userID)
		return err == nil && session.ActivationMethod == model.SOSMethodDuress
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRequestLogout(t *testing.T) {
	engine, ctrl := setup(t)
	createProfile(t, ctrl)
	token := signIn(t, engine, password)

	gofight.New().DELETE("/session").SetHeader(bearer(token)).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusNoContent, r.Code)
	})

	gofight.New().GET("/session").SetHeader(bearer(token)).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusUnauthorized, r.Code)
	})
}

func TestRequestUpdatePassword(t *testing.T) {
	engine, ctrl := setup(t)
	createProfile(t, ctrl)
	token := signIn(t, engine, password)

	params := gofight.D{"new_password": "password43"}
	gofight.New().POST("/auth/change_pw").SetHeader(bearer(token)).SetJSON(params).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusBadRequest, r.Code)
		assert.JSONEq(t, `{"error":{"tag":"validation","message":"Your current password is required to change your password."}}`, r.Body.String())
	})

	params["current_password"] = "wrong"
	gofight.New().POST("/auth/change_pw").SetHeader(bearer(token)).SetJSON(params).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusUnauthorized, r.Code)
		assert.JSONEq(t, `{"error":{"tag":"invalid-auth","message":"The current password you entered is incorrect."}}`, r.Body.String())
	})

	params["current_password"] = password
	gofight.New().POST("/auth/change_pw").SetHeader(bearer(token)).SetJSON(params).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusNoContent, r.Code)
	})

	signIn(t, engine, "password43")

	// The duress password cannot be changed with itself as current password.
	duressToken := signIn(t, engine, duressPassword)
	params = gofight.D{"current_password": duressPassword, "new_password": "duress43"}
	gofight.New().POST("/auth/change_duress_pw").SetHeader(bearer(duressToken)).SetJSON(params).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusUnauthorized, r.Code)
	})

	params["current_password"] = "password43"
	gofight.New().POST("/auth/change_duress_pw").SetHeader(bearer(duressToken)).SetJSON(params).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusNoContent, r.Code)
	})
	require.NotEmpty(t, signIn(t, engine, "duress43"))
}
