package spidervision

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"spidervision-report/lib/crawlstatus"

	"github.com/stretchr/testify/require"
)

const overviewRow = `{
	"domainDealerName": "Carrefour",
	"crawlProgress": 42.5,
	"crawlSuccessProgress": "97%",
	"day0": "{'progress': 18.2, 'successPercent': 99}",
	"day1": {"progress": 17.9, "successPercent": 98},
	"day2": null,
	"day3": "0"
}`

func newTestServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		switch body["email"] {
		case "ops@example.com":
			if body["password"] != "hunter2" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"message": "bad credentials"}`))
				return
			}
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"user": "ops", "accessToken": "token-123"}`))
		case "tokenless@example.com":
			w.Write([]byte(`{"user": "tokenless"}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	})
	mux.HandleFunc("/overview", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer token-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"total": 2, "data": [` + overviewRow + `, {"name": "Cora"}, "garbage"]}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	client, err := NewClient(ClientOptions{BaseUrl: server.URL + "/"})
	require.NoError(t, err)
	return client
}

func TestLogin(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	client := newTestClient(t, server)
	token, err := client.Login(ctx, "ops@example.com", "hunter2")
	require.NoError(t, err)
	require.Equal(t, "token-123", token)
	require.True(t, client.Authenticated())

	_, err = newTestClient(t, server).Login(ctx, "ops@example.com", "wrong")
	require.ErrorIs(t, err, ErrLoginFailed)

	_, err = newTestClient(t, server).Login(ctx, "tokenless@example.com", "hunter2")
	require.ErrorIs(t, err, ErrNoToken)

	_, err = newTestClient(t, server).Login(ctx, "", "")
	require.ErrorIs(t, err, ErrLoginFailed)

	_, err = newTestClient(t, server).Login(ctx, "nobody@example.com", "x")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrLoginFailed)
}

func TestOverview(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	client := newTestClient(t, server)
	_, err := client.Overview(ctx)
	require.ErrorIs(t, err, ErrNoSession)

	client.SetToken("stale")
	_, err = client.Overview(ctx)
	require.ErrorIs(t, err, ErrLoginFailed)

	client.SetToken(" token-123\n")
	records, err := client.Overview(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	carrefour := records[0]
	require.Equal(t, "Carrefour", carrefour.Name)
	require.Len(t, carrefour.Days, crawlstatus.DayCount)
	require.Equal(t, "{'progress': 18.2, 'successPercent': 99}", carrefour.Days[0])
	require.Equal(t, "", carrefour.Days[2])
	require.Equal(t, "0", carrefour.Days[3])
	require.Equal(t, 42.5, *carrefour.Current.Progress)
	require.Equal(t, 97.0, *carrefour.Current.SuccessPercent)

	day1 := crawlstatus.ParseDay(carrefour.Days[1])
	require.Equal(t, 17.9, *day1.Progress)

	require.Equal(t, "Cora", records[1].Name)
}

func TestDecodeOverview(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		expect []string
	}{
		{name: "list", body: `[{"name": "a"}, {"name": "b"}]`, expect: []string{"a", "b"}},
		{name: "retailers", body: `{"retailers": [{"name": "a"}]}`, expect: []string{"a"}},
		{name: "items", body: `{"items": [{"name": "a"}, 3]}`, expect: []string{"a"}},
		{name: "stores", body: `{"stores": []}`, expect: []string{}},
		{name: "single object", body: `{"name": "a"}`, expect: []string{"a"}},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			rows, err := DecodeOverview([]byte(test.body))
			require.NoError(t, err)
			names := []string{}
			for _, row := range rows {
				names = append(names, crawlstatus.RecordFromJSON(row).Name)
			}
			require.Equal(t, test.expect, names)
		})
	}

	_, err := DecodeOverview([]byte(`"just a string"`))
	require.Error(t, err)
	_, err = DecodeOverview([]byte(`{"data": "nope"}`))
	require.Error(t, err)
}

const dashboardPage = `<html><body>
<table><tr><th>Menu</th></tr><tr><td>Home</td></tr></table>
<table>
	<tr><th>ID</th><th>Domain dealer</th><th>Crawled</th><th>Failed</th><th>Store to crawl</th><th>Progress</th><th>Success</th></tr>
	<tr><td>12</td><td>Intermarché</td><td>110</td><td>3</td><td>120</td><td>91.7%</td><td>97,5% on 120 stores</td></tr>
	<tr><td>13</td><td>Cora</td><td>/</td><td>-</td><td>40</td><td>12%</td><td>88%</td><td>on 40 stores</td></tr>
	<tr><td>14</td><td>Short</td><td>1</td></tr>
</table>
</body></html>`

func TestParseDashboardTable(t *testing.T) {
	rows, err := ParseDashboardTable(strings.NewReader(dashboardPage))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	intermarche := rows[0]
	require.Equal(t, "12", intermarche.Id)
	require.Equal(t, "Intermarché", intermarche.Name)
	require.Equal(t, 110, intermarche.StoresCrawled)
	require.Equal(t, 3, intermarche.StoresFailed)
	require.Equal(t, 120, intermarche.StoresTotal)
	require.Equal(t, 91.7, *intermarche.Progress)
	require.Equal(t, 97.5, *intermarche.Success)

	cora := rows[1]
	require.Equal(t, 0, cora.StoresCrawled)
	require.Equal(t, 0, cora.StoresFailed)
	require.Equal(t, 12.0, *cora.Progress)
	require.Equal(t, 88.0, *cora.Success)

	record := cora.Record()
	require.Equal(t, "Cora", record.Name)
	require.Empty(t, record.Days)
	require.True(t, record.HistoryUnavailable)
	require.Equal(t, 88.0, *record.Current.SuccessPercent)
}

func TestDashboard(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/dashboard" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(dashboardPage))
	}))
	defer server.Close()

	client := newTestClient(t, server)
	rows, err := client.Dashboard(context.Background(), "/dashboard")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	_, err = client.Dashboard(context.Background(), "/missing")
	require.Error(t, err)
}
