package integration

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"coinwise/internal/parser"
)

const sampleStatement = `ACCOUNT STATEMENT
Account: NL91ABNA0417164300
Opening balance: 1,240.00 EUR
2024-03-10  CARD PAYMENT  LIDL SUPERMARKET       -45.00
2024-03-11  TRANSFER      RENT MARCH            -850.00
Closing balance: 345.00 EUR`

func TestUploadFlow_InlineProcessing(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "upload@test.com", "password123")

	app.Parser.Transactions = []parser.ParsedTransaction{
		{Type: "expense", Amount: 45.00, Date: "2024-03-10", Currency: "EUR", Category: "Groceries", Merchant: "Lidl"},
		{Type: "expense", Amount: 850.00, Date: "2024-03-11", Currency: "EUR", Category: "Housing", Description: "Rent March"},
	}

	rec := app.request("POST", "/api/v1/uploads",
		fmt.Sprintf(`{"text":%q}`, sampleStatement), token)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	upload := parseJSON(t, rec)["upload"].(map[string]interface{})
	if upload["status"] != "completed" {
		t.Fatalf("expected inline processing to complete, got status %v", upload["status"])
	}
	if upload["transaction_count"].(float64) != 2 {
		t.Errorf("expected 2 transactions extracted, got %v", upload["transaction_count"])
	}

	// The IBAN never reaches the parser.
	if app.Parser.LastText == "" {
		t.Fatal("expected the parser to receive text")
	}
	if strings.Contains(app.Parser.LastText, "NL91ABNA0417164300") {
		t.Error("expected account number to be anonymized before parsing")
	}

	// The extracted transactions are stored in cents.
	rec = app.request("GET", "/api/v1/transactions?sort_by=amount&sort_order=asc", "", token)
	data := parseJSON(t, rec)["data"].([]interface{})
	if len(data) != 2 {
		t.Fatalf("expected 2 stored transactions, got %d", len(data))
	}
	first := data[0].(map[string]interface{})
	if first["amount"].(float64) != 4500 {
		t.Errorf("expected 45.00 stored as 4500 cents, got %v", first["amount"])
	}
}

func TestUploadFlow_RejectsNonStatements(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "reject@test.com", "password123")

	rec := app.request("POST", "/api/v1/uploads", `{"text":"too short"}`, token)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for short text, got %d: %s", rec.Code, rec.Body.String())
	}

	longLorem := ""
	for i := 0; i < 20; i++ {
		longLorem += "lorem ipsum dolor sit amet consectetur "
	}
	rec = app.request("POST", "/api/v1/uploads",
		fmt.Sprintf(`{"text":%q}`, longLorem), token)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-statement text, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUploadFlow_SkipsDuplicates(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "dupskip@test.com", "password123")

	// The same expense already exists.
	rec := app.request("POST", "/api/v1/transactions",
		`{"type":"expense","amount":4500,"category":"Groceries","merchant":"Lidl","date":"2024-03-10T00:00:00Z"}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	app.Parser.Transactions = []parser.ParsedTransaction{
		{Type: "expense", Amount: 45.00, Date: "2024-03-10", Currency: "EUR", Category: "Groceries", Merchant: "Lidl"},
		{Type: "income", Amount: 1000.00, Date: "2024-03-12", Currency: "EUR", Description: "Salary"},
	}

	rec = app.request("POST", "/api/v1/uploads",
		fmt.Sprintf(`{"text":%q}`, sampleStatement), token)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	upload := parseJSON(t, rec)["upload"].(map[string]interface{})
	if upload["transaction_count"].(float64) != 1 {
		t.Errorf("expected only the new transaction inserted, got %v", upload["transaction_count"])
	}
	if upload["duplicate_count"].(float64) != 1 {
		t.Errorf("expected 1 duplicate skipped, got %v", upload["duplicate_count"])
	}
}

func TestUploadFlow_ParseFailureMarksUploadFailed(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "parsefail@test.com", "password123")

	app.Parser.Err = fmt.Errorf("model returned garbage")

	rec := app.request("POST", "/api/v1/uploads",
		fmt.Sprintf(`{"text":%q}`, sampleStatement), token)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}

	// The stored upload records the failure.
	rec = app.request("GET", "/api/v1/uploads", "", token)
	data := parseJSON(t, rec)["data"].([]interface{})
	if len(data) != 1 {
		t.Fatalf("expected 1 upload, got %d", len(data))
	}
	upload := data[0].(map[string]interface{})
	if upload["status"] != "failed" {
		t.Errorf("expected status failed, got %v", upload["status"])
	}
}
