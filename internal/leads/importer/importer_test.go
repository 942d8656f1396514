package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"estate_admin_backend/internal/leads/domain"
	"estate_admin_backend/platform/apperr"
	"estate_admin_backend/platform/logger"
	"estate_admin_backend/platform/validator"

	"golang.org/x/time/rate"
)

type fakeCreator struct {
	created []NewLead
	failOn  map[string]error
}

func (f *fakeCreator) CreateLead(_ context.Context, lead NewLead) error {
	if err, ok := f.failOn[lead.Name]; ok {
		return err
	}
	f.created = append(f.created, lead)
	return nil
}

func newImporter(creator *fakeCreator) *Importer {
	return New(creator, validator.New(), rate.NewLimiter(rate.Inf, 1), logger.New("development"))
}

func TestRunHebrewScenario(t *testing.T) {
	text := "שם,טלפון,אימייל\nדני,050-1234567,dani@x.com\n,,\nרות,bad-phone!!,ruth@x.com\n"
	creator := &fakeCreator{}

	result, err := newImporter(creator).Run(context.Background(), text)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Imported != 1 || result.Skipped != 1 {
		t.Fatalf("imported=%d skipped=%d, want 1/1", result.Imported, result.Skipped)
	}
	if len(creator.created) != 1 || creator.created[0].Name != "דני" {
		t.Fatalf("created = %+v", creator.created)
	}
	if creator.created[0].Source != domain.SourceOther {
		t.Fatalf("blank source should default to other, got %q", creator.created[0].Source)
	}
}

func TestRunCountsInvalidEmails(t *testing.T) {
	var b strings.Builder
	b.WriteString("name,phone,email\n")
	for i := 0; i < 10; i++ {
		email := fmt.Sprintf("lead%d@x.com", i)
		if i < 3 {
			email = "not-an-email"
		}
		fmt.Fprintf(&b, "Lead %d,050-00000%02d,%s\n", i, i, email)
	}

	result, err := newImporter(&fakeCreator{}).Run(context.Background(), b.String())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Imported != 7 || result.Skipped != 3 {
		t.Fatalf("imported=%d skipped=%d, want 7/3", result.Imported, result.Skipped)
	}
}

func TestRunRejectsMissingColumns(t *testing.T) {
	text := "שם,מקור\nדני,אתר\n"
	creator := &fakeCreator{}

	_, err := newImporter(creator).Run(context.Background(), text)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(creator.created) != 0 {
		t.Fatal("no rows may be processed when required columns are missing")
	}

	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperr.Error, got %T", err)
	}
	details, ok := appErr.Details.(map[string][]string)
	if !ok {
		t.Fatalf("details = %#v", appErr.Details)
	}
	missing := strings.Join(details["missingColumns"], ",")
	if !strings.Contains(missing, "phone") || !strings.Contains(missing, "email") {
		t.Fatalf("missing columns = %q", missing)
	}
}

func TestRunEnglishHeadersAndSourceMapping(t *testing.T) {
	text := "Name,Phone,Email,Source\nJohn,03-5551234,john@x.com,facebook\nDana,050-7654321,dana@x.com,פייסבוק\n"
	creator := &fakeCreator{}

	result, err := newImporter(creator).Run(context.Background(), text)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Imported != 2 {
		t.Fatalf("imported = %d", result.Imported)
	}
	for _, lead := range creator.created {
		if lead.Source != domain.SourceFacebook {
			t.Fatalf("source = %q for %q", lead.Source, lead.Name)
		}
	}
}

func TestRunMissingNameOrPhoneSkips(t *testing.T) {
	text := "name,phone,email\n,050-1234567,a@x.com\nDana,,b@x.com\n"
	result, err := newImporter(&fakeCreator{}).Run(context.Background(), text)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Imported != 0 || result.Skipped != 2 {
		t.Fatalf("imported=%d skipped=%d, want 0/2", result.Imported, result.Skipped)
	}
}

func TestRunCreateFailureKeepsEarlierRows(t *testing.T) {
	text := "name,phone,email\nA,050-1111111,a@x.com\nB,050-2222222,b@x.com\nC,050-3333333,c@x.com\n"
	creator := &fakeCreator{failOn: map[string]error{"B": errors.New("boom")}}

	result, err := newImporter(creator).Run(context.Background(), text)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Imported != 2 || result.Skipped != 1 {
		t.Fatalf("imported=%d skipped=%d, want 2/1", result.Imported, result.Skipped)
	}
	if len(creator.created) != 2 {
		t.Fatalf("created rows = %d, earlier rows must not roll back", len(creator.created))
	}
}

func TestRunRoundTripFromExportDialect(t *testing.T) {
	text := "\uFEFF\"שם\",\"טלפון\",\"אימייל\"\n\"דני\",\"050-1234567\",\"dani@x.com\"\n"
	creator := &fakeCreator{}

	result, err := newImporter(creator).Run(context.Background(), text)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Imported != 1 || result.Skipped != 0 {
		t.Fatalf("imported=%d skipped=%d", result.Imported, result.Skipped)
	}
	if creator.created[0].Phone != "050-1234567" {
		t.Fatalf("phone = %q", creator.created[0].Phone)
	}
}
