package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skufu/medpredict/internal/artifact"
	"github.com/Skufu/medpredict/internal/audit"
	"github.com/Skufu/medpredict/internal/inference"
	"github.com/Skufu/medpredict/internal/schema"
)

type fakeDB struct {
	err error
}

func (f fakeDB) Ping(ctx context.Context) error {
	return f.err
}

type fakeAudit struct {
	entries []audit.Entry
	ctxErrs []error
	err     error
}

func (f *fakeAudit) Record(ctx context.Context, e audit.Entry) error {
	f.entries = append(f.entries, e)
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	return f.err
}

func newTestRouter(t *testing.T, d Deps) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	reg, err := artifact.Load("../../models")
	require.NoError(t, err)
	d.Registry = reg
	if d.Pipeline == nil {
		d.Pipeline = inference.New(reg, inference.Options{})
	}
	return NewRouter(d)
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req, _ = http.NewRequest(method, path, nil)
	} else {
		req, _ = http.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	router.ServeHTTP(w, req)
	return w
}

const diabetesBody = `{"fields": {
	"Pregnancies": "3", "Glucose": "90", "BloodPressure": "60", "SkinThickness": "25",
	"Insulin": "120", "BMI": "22", "DiabetesPedigreeFunction": "1.2", "Age": "21"
}}`

func TestRouterHealthz(t *testing.T) {
	router := newTestRouter(t, Deps{DB: fakeDB{}})

	w := do(router, "GET", "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestRouterReadyz(t *testing.T) {
	w := do(newTestRouter(t, Deps{}), "GET", "/readyz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"db":"disabled"`)

	w = do(newTestRouter(t, Deps{DB: fakeDB{}}), "GET", "/readyz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"db":"ok"`)

	w = do(newTestRouter(t, Deps{DB: fakeDB{err: errors.New("refused")}}), "GET", "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "unhealthy: refused")
}

func TestPredictDiabetes(t *testing.T) {
	rec := &fakeAudit{}
	router := newTestRouter(t, Deps{Audit: rec})

	w := do(router, "POST", "/api/domains/diabetes/predict", diabetesBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var v inference.Verdict
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	assert.Equal(t, schema.Diabetes, v.Domain)
	assert.Equal(t, 0, v.Label)
	assert.Equal(t, "The person does not have diabetes.", v.Message)

	require.Len(t, rec.entries, 1)
	assert.Equal(t, "diabetes", rec.entries[0].Domain)
	assert.NotEmpty(t, rec.entries[0].RequestID)
	assert.Equal(t, rec.entries[0].RequestID, w.Header().Get("X-Request-ID"))
}

func TestPredictAcceptsNumbers(t *testing.T) {
	body := `{"fields": {"Pregnancies": 3, "Glucose": 90, "BloodPressure": 60, "SkinThickness": 25,
		"Insulin": 120, "BMI": 22, "DiabetesPedigreeFunction": 1.2, "Age": 21}}`
	w := do(newTestRouter(t, Deps{}), "POST", "/api/domains/diabetes/predict", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "does not have diabetes")
}

func TestPredictAuditSurvivesClientDisconnect(t *testing.T) {
	rec := &fakeAudit{}
	router := newTestRouter(t, Deps{Audit: rec})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req, _ := http.NewRequestWithContext(ctx, "POST", "/api/domains/diabetes/predict", strings.NewReader(diabetesBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, rec.entries, 1)
	assert.NoError(t, rec.ctxErrs[0], "audit context must not inherit request cancellation")
}

func TestPredictAuditFailureDoesNotFailRequest(t *testing.T) {
	rec := &fakeAudit{err: errors.New("db down")}
	w := do(newTestRouter(t, Deps{Audit: rec}), "POST", "/api/domains/diabetes/predict", diabetesBody)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, rec.entries, 1)
}

func TestPredictUnknownCategory(t *testing.T) {
	body := `{"fields": {
		"age": "40", "bp": "80", "sg": "1.020", "al": "0", "su": "0",
		"rbc": "normal (1)", "pc": "normal (1)", "pcc": "notpresent (0)", "ba": "notpresent (0)",
		"bgr": "110", "bu": "30", "sc": "0.9", "sod": "140", "pot": "4.5",
		"hemo": "15.0", "pcv": "45", "wc": "7500", "rc": "5.2",
		"htn": "no (0)", "dm": "no (0)", "cad": "no (0)", "appet": "good (0)",
		"pe": "maybe", "ane": "no (0)"
	}}`
	rec := &fakeAudit{}
	w := do(newTestRouter(t, Deps{Audit: rec}), "POST", "/api/domains/kidney/predict", body)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_input", resp["error"])
	assert.Equal(t, "unknown_category", resp["kind"])
	assert.Equal(t, "pe", resp["field"])
	assert.Empty(t, rec.entries, "failed predictions are not audited")
}

func TestPredictParseError(t *testing.T) {
	body := strings.Replace(diabetesBody, `"Glucose": "90"`, `"Glucose": "abc"`, 1)
	w := do(newTestRouter(t, Deps{}), "POST", "/api/domains/diabetes/predict", body)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"Glucose"`)
	assert.Contains(t, w.Body.String(), `"kind":"parse"`)
}

func TestPredictIncomplete(t *testing.T) {
	body := strings.Replace(diabetesBody, `"Age": "21"`, `"Extra": "1"`, 1)
	w := do(newTestRouter(t, Deps{}), "POST", "/api/domains/diabetes/predict", body)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Error   string   `json:"error"`
		Missing []string `json:"missing"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "incomplete_input", resp.Error)
	assert.Equal(t, []string{"Age"}, resp.Missing)
}

func TestPredictStrictRanges(t *testing.T) {
	reg, err := artifact.Load("../../models")
	require.NoError(t, err)
	router := newTestRouter(t, Deps{Pipeline: inference.New(reg, inference.Options{StrictRanges: true})})

	body := strings.Replace(diabetesBody, `"Glucose": "90"`, `"Glucose": "900"`, 1)
	w := do(router, "POST", "/api/domains/diabetes/predict", body)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"kind":"out_of_range"`)
}

func TestPredictBadRequests(t *testing.T) {
	router := newTestRouter(t, Deps{})

	w := do(router, "POST", "/api/domains/liver/predict", diabetesBody)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(router, "POST", "/api/domains/diabetes/predict", `{"fields": `)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid payload")

	w = do(router, "POST", "/api/domains/diabetes/predict", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, "POST", "/api/domains/diabetes/predict", `{"fields": {"Age": true}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListDomains(t *testing.T) {
	w := do(newTestRouter(t, Deps{}), "GET", "/api/domains", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Domains []domainSummary `json:"domains"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Domains, 3)
	assert.Equal(t, "diabetes", resp.Domains[0].Name)
	assert.Equal(t, 8, resp.Domains[0].Fields)
	assert.Equal(t, "heart", resp.Domains[1].Name)
	assert.False(t, resp.Domains[1].Scaled)
	assert.Equal(t, 24, resp.Domains[2].Fields)
}

func TestDomainSchema(t *testing.T) {
	w := do(newTestRouter(t, Deps{}), "GET", "/api/domains/heart/schema", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Domain string      `json:"domain"`
		Fields []fieldView `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "heart", resp.Domain)
	require.Len(t, resp.Fields, 13)
	assert.Equal(t, "Gender", resp.Fields[1].Name)
	assert.Equal(t, []schema.Code{{Label: "Male", Value: 1}, {Label: "Female", Value: 0}}, resp.Fields[1].Options)
	require.NotNil(t, resp.Fields[4].Range)
	assert.Equal(t, 600.0, resp.Fields[4].Range.Max)

	w = do(newTestRouter(t, Deps{}), "GET", "/api/domains/lung/schema", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRequestIDIsPropagated(t *testing.T) {
	router := newTestRouter(t, Deps{})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, Deps{})
	do(router, "POST", "/api/domains/diabetes/predict", diabetesBody)

	w := do(router, "GET", "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "medpredict_inference_predictions_total")
}

func TestBodyLimitAppliesToPredict(t *testing.T) {
	limit := int64(len(diabetesBody))

	w := do(newTestRouter(t, Deps{MaxBodyBytes: limit}), "POST", "/api/domains/diabetes/predict", diabetesBody)
	assert.Equal(t, http.StatusOK, w.Code, "a body exactly at the limit is accepted")

	w = do(newTestRouter(t, Deps{MaxBodyBytes: limit - 1}), "POST", "/api/domains/diabetes/predict", diabetesBody)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "payload too large")
}
