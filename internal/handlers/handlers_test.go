package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"ecom-dashboard/internal/services"
	"ecom-dashboard/internal/ui/format"
)

const sampleCSV = "order_id,customer_id,order_status,order_purchase_timestamp,order_delivered_customer_date,customer_city,customer_state,seller_id,seller_city,seller_state,product_category_name,quantity,total_price,review_id,review_score\n" +
	"A,c1,delivered,2018-01-01 10:00:00,2018-01-05 12:00:00,sao paulo,SP,s1,campinas,SP,beleza_saude,2,100.00,r1,5\n" +
	"C,c3,delivered,2018-01-02 15:30:00,,rio de janeiro,RJ,s2,niteroi,RJ,informatica,3,30.00,r3,4\n" +
	"B,c2,canceled,2018-01-03 09:00:00,,sao paulo,SP,s1,campinas,SP,beleza_saude,1,50.00,,\n"

type csvOpener string

func (o csvOpener) Open(context.Context, string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(string(o))), nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func createTestAnalytics(t *testing.T) *services.Analytics {
	t.Helper()
	a := services.NewAnalytics(
		services.WithLogger(testLogger()),
		services.WithOpener(csvOpener(sampleCSV)),
	)
	require.NoError(t, a.LoadFromSource(context.Background(), "sample.csv"))
	return a
}

func testFormatter(t *testing.T) *format.Formatter {
	t.Helper()
	f, err := format.New("R$", "es-CO")
	require.NoError(t, err)
	return f
}

// envelope is the JSON body written by the errors package.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Details string `json:"details"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&env))
	return env
}

func signalsQuery(start, end string) string {
	b, _ := json.Marshal(map[string]string{"startDate": start, "endDate": end})
	return "?" + url.Values{"datastar": {string(b)}}.Encode()
}

func get(h http.HandlerFunc, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}
