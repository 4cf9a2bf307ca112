package response_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"teenpatti-service/pkg/response"

	"github.com/gin-gonic/gin"
)

func record(t *testing.T, fn func(c *gin.Context)) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	fn(c)

	var body map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid body %q: %v", w.Body.String(), err)
	}
	return w, body
}

func TestSuccessEnvelope(t *testing.T) {
	w, body := record(t, func(c *gin.Context) {
		response.Success(c, gin.H{"balance": 100})
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if string(body["code"]) != "200" {
		t.Fatalf("code = %s", body["code"])
	}
	if string(body["data"]) != `{"balance":100}` {
		t.Fatalf("data = %s", body["data"])
	}
}

func TestErrorKeepsDataAnObject(t *testing.T) {
	w, body := record(t, func(c *gin.Context) {
		response.Error(c, http.StatusConflict, "seat taken")
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d", w.Code)
	}
	if string(body["data"]) != "{}" {
		t.Fatalf("data should be an empty object, got %s", body["data"])
	}
	if string(body["msg"]) != `"seat taken"` {
		t.Fatalf("msg = %s", body["msg"])
	}
}
