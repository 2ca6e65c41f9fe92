package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validCAN() CAN {
	return CAN{
		Number:          "G123456",
		Description:     "Head Start research",
		Nickname:        "FOO",
		ArrangementType: ArrangementOPREAppropriation,
		AuthorizerID:    1,
	}
}

func TestDivisionValidate(t *testing.T) {
	for _, d := range Divisions() {
		if err := d.Validate(); err != nil {
			t.Fatalf("%s expected ok, got %v", d, err)
		}
	}
	for _, bad := range []Division{"", "1,", "dcfd", "OPRE"} {
		if err := bad.Validate(); !errors.Is(err, ErrValidation) {
			t.Fatalf("%q expected validation error, got %v", bad, err)
		}
	}
}

func TestArrangementTypeValidate(t *testing.T) {
	if err := ArrangementCostShare.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := ArrangementType("Grant").Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCANValidate(t *testing.T) {
	if err := validCAN().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name  string
		field string
		mut   func(*CAN)
	}{
		{"missing number", "number", func(c *CAN) { c.Number = "  " }},
		{"number too long", "number", func(c *CAN) { c.Number = strings.Repeat("9", 31) }},
		{"missing description", "description", func(c *CAN) { c.Description = "" }},
		{"nickname too long", "nickname", func(c *CAN) { c.Nickname = strings.Repeat("n", 31) }},
		{"bad arrangement", "arrangement_type", func(c *CAN) { c.ArrangementType = "" }},
		{"missing authorizer", "authorizer_id", func(c *CAN) { c.AuthorizerID = 0 }},
		{"bad source id", "funding_source_ids", func(c *CAN) { c.FundingSourceIDs = []int64{2, -1} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := validCAN()
			tc.mut(&c)
			err := c.Validate()
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tc.field {
				t.Errorf("field = %q, want %q", ve.Field, tc.field)
			}
		})
	}
}

func TestPersonValidate(t *testing.T) {
	good := Person{FirstName: "Ada", LastName: "Lovelace", Division: DivisionDDI}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []Person{
		{FirstName: "", LastName: "L", Division: DivisionDDI},
		{FirstName: "A", LastName: "", Division: DivisionDDI},
		{FirstName: "A", LastName: "L", Division: "1,"},
		{FirstName: strings.Repeat("a", 101), LastName: "L", Division: DivisionOD},
	}
	for i, p := range bads {
		if err := p.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestCANFiscalYearValidate(t *testing.T) {
	good := CANFiscalYear{
		CANID:                  1,
		FiscalYear:             2021,
		AmountAvailable:            MustParseMoney("100.00"),
		TotalFiscalYearFunding:     MustParseMoney("150.00"),
		PotentialAdditionalFunding: MustParseMoney("0"),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	for field, unset := range map[string]func(*CANFiscalYear){
		"amount_available":             func(f *CANFiscalYear) { f.AmountAvailable = Money{} },
		"total_fiscal_year_funding":    func(f *CANFiscalYear) { f.TotalFiscalYearFunding = Money{} },
		"potential_additional_funding": func(f *CANFiscalYear) { f.PotentialAdditionalFunding = Money{} },
	} {
		missing := good
		unset(&missing)
		var verr *ValidationError
		if err := missing.Validate(); !errors.As(err, &verr) || verr.Field != field || verr.Reason != "required" {
			t.Errorf("missing %s: got %v", field, err)
		}
	}

	tooPrecise := good
	tooPrecise.AmountAvailable = MustParseMoney("1.005")
	if err := tooPrecise.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for 3 decimals, got %v", err)
	}

	tooLarge := good
	tooLarge.TotalFiscalYearFunding = MustParseMoney("10000000000.00")
	if err := tooLarge.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for 13 digits, got %v", err)
	}

	noCAN := good
	noCAN.CANID = 0
	if err := noCAN.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for missing can, got %v", err)
	}
}

func TestContractLineItemFiscalYearCANValidate_RequiresFunding(t *testing.T) {
	row := ContractLineItemFiscalYearCAN{FiscalYearID: 1, CANID: 1}
	var verr *ValidationError
	if err := row.Validate(); !errors.As(err, &verr) || verr.Field != "funding" {
		t.Fatalf("expected funding required, got %v", err)
	}
	row.Funding = MustParseMoney("0")
	if err := row.Validate(); err != nil {
		t.Fatalf("zero funding should be accepted, got %v", err)
	}
}

func TestAdditionalAmountAnticipated(t *testing.T) {
	cases := []struct {
		available, total, want string
	}{
		{"100.00", "150.00", "50.00"},
		{"150.00", "100.00", "-50.00"},
		{"0", "0", "0.00"},
		{"9999999999.99", "0.01", "-9999999999.98"},
	}
	for _, tc := range cases {
		f := CANFiscalYear{
			AmountAvailable:        MustParseMoney(tc.available),
			TotalFiscalYearFunding: MustParseMoney(tc.total),
		}
		if got := f.AdditionalAmountAnticipated().String(); got != tc.want {
			t.Errorf("total %s - available %s = %s, want %s", tc.total, tc.available, got, tc.want)
		}
	}
}

func TestDisplayNames(t *testing.T) {
	can := validCAN()
	if got := can.DisplayName(); got != "G123456 (FOO) " {
		t.Errorf("CAN display = %q", got)
	}
	fy := CANFiscalYear{FiscalYear: 2021}
	if got := fy.DisplayName(can); got != "G123456 (FOO) - 2021" {
		t.Errorf("fiscal year display = %q", got)
	}
	p := Person{FirstName: "Ada", LastName: "Lovelace"}
	if got := p.FullName(); got != "Ada Lovelace" {
		t.Errorf("person display = %q", got)
	}
	if got := RoleNames([]Role{{Name: "Team Lead"}, {Name: "COR"}}); got != "Team Lead, COR" {
		t.Errorf("role names = %q", got)
	}
}

func TestResearchAreasKeepsOrder(t *testing.T) {
	got := ResearchAreas([]CAN{{Nickname: "B"}, {Nickname: "A"}, {Nickname: "B"}})
	want := []string{"B", "A", "B"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("ResearchAreas = %v, want %v", got, want)
	}
	if got := ResearchAreas(nil); len(got) != 0 {
		t.Fatalf("expected empty research areas, got %v", got)
	}
}

func TestContributionAndForCAN(t *testing.T) {
	rows := []ContractLineItemFiscalYearCAN{
		{ID: 1, FiscalYearID: 10, CANID: 1, Funding: MustParseMoney("25.00")},
		{ID: 2, FiscalYearID: 11, CANID: 1, Funding: MustParseMoney("0.10")},
		{ID: 3, FiscalYearID: 11, CANID: 2, Funding: MustParseMoney("99.99")},
	}
	if got := Contribution(rows, 1).String(); got != "25.10" {
		t.Errorf("Contribution(can 1) = %s", got)
	}
	if got := Contribution(rows, 3).String(); got != "0.00" {
		t.Errorf("Contribution(can 3) = %s", got)
	}

	lfy := ContractLineItemFiscalYear{ID: 11}
	row, ok := lfy.ForCAN(rows, 2)
	if !ok || row.ID != 3 {
		t.Errorf("ForCAN(2) = %+v, %v", row, ok)
	}
	if _, ok := lfy.ForCAN(rows, 5); ok {
		t.Errorf("ForCAN(5) should miss")
	}
}

func TestNewFiscalYearReportRow(t *testing.T) {
	can := validCAN()
	can.Purpose = "Evaluate programs"
	fy := CANFiscalYear{
		ID:                     7,
		FiscalYear:             2021,
		AmountAvailable:        MustParseMoney("100.00"),
		TotalFiscalYearFunding: MustParseMoney("150.00"),
		Notes:                  "carry over",
	}
	leads := []Person{
		{FirstName: "Ada", LastName: "Lovelace", Division: DivisionDDI},
		{FirstName: "Alan", LastName: "Turing", Division: DivisionDDI},
		{FirstName: "Grace", LastName: "Hopper", Division: DivisionOD},
	}
	row := NewFiscalYearReportRow(fy, can,
		[]FundingPartner{{Name: "ACF"}, {Name: "HHS"}},
		FundingPartner{Name: "OPRE"}, leads)

	if row.CANName != "G123456 (FOO) - 2021" {
		t.Errorf("CANName = %q", row.CANName)
	}
	if row.AdditionalAmountAnticipated.String() != "50.00" {
		t.Errorf("AdditionalAmountAnticipated = %s", row.AdditionalAmountAnticipated)
	}
	if row.Sources != "ACF, HHS" || row.Authorizer != "OPRE" {
		t.Errorf("sources/authorizer = %q/%q", row.Sources, row.Authorizer)
	}
	if row.Leads != "Ada Lovelace, Alan Turing, Grace Hopper" {
		t.Errorf("Leads = %q", row.Leads)
	}
	if row.Divisions != "DDI, OD" {
		t.Errorf("Divisions = %q", row.Divisions)
	}
}

func TestFiscalYearOf(t *testing.T) {
	tests := []struct {
		date time.Time
		want int
	}{
		{time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC), 2021},
		{time.Date(2021, time.September, 30, 23, 59, 0, 0, time.UTC), 2021},
		{time.Date(2021, time.October, 1, 0, 0, 0, 0, time.UTC), 2022},
		{time.Date(2021, time.December, 31, 0, 0, 0, 0, time.UTC), 2022},
	}
	for _, tt := range tests {
		if got := FiscalYearOf(tt.date); got != tt.want {
			t.Errorf("FiscalYearOf(%s) = %d, want %d", tt.date.Format("2006-01-02"), got, tt.want)
		}
	}
}
