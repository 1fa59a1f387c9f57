package ledger

import (
	"strings"
	"time"

	"github.com/genlab/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferDelay is the time between OPU and embryo transfer
const TransferDelay = 7 * 24 * time.Hour

// ProductionBatch is one embryo-production session for a client. Its
// Outputs are the withdrawals of bull material used in the session.
type ProductionBatch struct {
	shared.BaseEntity
	ClientID     uuid.UUID
	OpuDate      time.Time
	Place        string
	Farm         string
	StartTime    string // HH:MM, optional
	EndTime      string // HH:MM, optional
	Container    string
	TransferDate time.Time
	Notes        string
	OutputIDs    []uuid.UUID
}

// BatchDetails carries the descriptive fields of a batch
type BatchDetails struct {
	ClientID  uuid.UUID
	OpuDate   time.Time
	Place     string
	Farm      string
	StartTime string
	EndTime   string
	Container string
	Notes     string
}

// NewProductionBatch creates a batch; the transfer date is derived from the OPU date
func NewProductionBatch(d BatchDetails) (*ProductionBatch, error) {
	if d.ClientID == uuid.Nil {
		return nil, NewValidationError("client_id", "Client ID cannot be empty")
	}
	if d.OpuDate.IsZero() {
		return nil, NewValidationError("opu_date", "OPU date is required")
	}
	if strings.TrimSpace(d.Place) == "" {
		return nil, NewValidationError("place", "Place is required")
	}
	if strings.TrimSpace(d.Farm) == "" {
		return nil, NewValidationError("farm", "Farm is required")
	}
	if strings.TrimSpace(d.Container) == "" {
		return nil, NewValidationError("container", "Container is required")
	}
	if !validClock(d.StartTime) {
		return nil, NewValidationError("start_time", "Start time must use HH:MM")
	}
	if !validClock(d.EndTime) {
		return nil, NewValidationError("end_time", "End time must use HH:MM")
	}

	return &ProductionBatch{
		BaseEntity:   shared.NewBaseEntity(),
		ClientID:     d.ClientID,
		OpuDate:      d.OpuDate,
		Place:        strings.TrimSpace(d.Place),
		Farm:         strings.TrimSpace(d.Farm),
		StartTime:    d.StartTime,
		EndTime:      d.EndTime,
		Container:    strings.TrimSpace(d.Container),
		TransferDate: d.OpuDate.Add(TransferDelay),
		Notes:        strings.TrimSpace(d.Notes),
		OutputIDs:    make([]uuid.UUID, 0),
	}, nil
}

func validClock(v string) bool {
	if v == "" {
		return true
	}
	_, err := time.Parse("15:04", v)
	return err == nil
}

// Attach adds output ids that are not already part of the batch and
// returns the ones that were new
func (b *ProductionBatch) Attach(outputIDs ...uuid.UUID) []uuid.UUID {
	known := make(map[uuid.UUID]struct{}, len(b.OutputIDs))
	for _, id := range b.OutputIDs {
		known[id] = struct{}{}
	}
	added := make([]uuid.UUID, 0, len(outputIDs))
	for _, id := range outputIDs {
		if _, ok := known[id]; ok {
			continue
		}
		known[id] = struct{}{}
		b.OutputIDs = append(b.OutputIDs, id)
		added = append(added, id)
	}
	if len(added) > 0 {
		b.UpdatedAt = time.Now()
	}
	return added
}

// Opus is the oocyte pick-up result for one donor within a batch
type Opus struct {
	shared.BaseEntity
	ProductionBatchID uuid.UUID
	ClientID          uuid.UUID
	BullID            uuid.UUID
	DonorCode         string
	Race              string
	Date              time.Time
	GradeI            int
	GradeII           int
	GradeIII          int
	Viable            int
	Others            int
	TotalOocytes      int
	Cleaved           int
	TotalEmbryos      int
}

// NewOpus validates and creates an Opus result row
func NewOpus(batch *ProductionBatch, bullID uuid.UUID, donorCode, race string, date time.Time, counts OpusCounts) (*Opus, error) {
	if bullID == uuid.Nil {
		return nil, NewValidationError("bull_id", "Bull ID cannot be empty")
	}
	if strings.TrimSpace(donorCode) == "" {
		return nil, NewValidationError("donor_code", "Donor code is required")
	}
	if err := counts.validate(); err != nil {
		return nil, err
	}
	if date.IsZero() {
		date = batch.OpuDate
	}
	return &Opus{
		BaseEntity:        shared.NewBaseEntity(),
		ProductionBatchID: batch.ID,
		ClientID:          batch.ClientID,
		BullID:            bullID,
		DonorCode:         strings.TrimSpace(donorCode),
		Race:              strings.TrimSpace(race),
		Date:              date,
		GradeI:            counts.GradeI,
		GradeII:           counts.GradeII,
		GradeIII:          counts.GradeIII,
		Viable:            counts.Viable,
		Others:            counts.Others,
		TotalOocytes:      counts.TotalOocytes,
		Cleaved:           counts.Cleaved,
		TotalEmbryos:      counts.TotalEmbryos,
	}, nil
}

// OpusCounts are the per-donor laboratory counts
type OpusCounts struct {
	GradeI       int
	GradeII      int
	GradeIII     int
	Viable       int
	Others       int
	TotalOocytes int
	Cleaved      int
	TotalEmbryos int
}

func (c OpusCounts) validate() error {
	for _, v := range []int{c.GradeI, c.GradeII, c.GradeIII, c.Viable, c.Others, c.TotalOocytes, c.Cleaved, c.TotalEmbryos} {
		if v < 0 {
			return NewValidationError("counts", "Counts cannot be negative")
		}
	}
	if c.TotalEmbryos > c.TotalOocytes {
		return NewValidationError("total_embryos", "Embryos cannot exceed oocytes")
	}
	return nil
}

// CleavageRate is cleaved over total oocytes, as a percentage with two decimals
func (o *Opus) CleavageRate() decimal.Decimal {
	return percentage(o.Cleaved, o.TotalOocytes)
}

// EmbryoRate is embryos over total oocytes, as a percentage with two decimals
func (o *Opus) EmbryoRate() decimal.Decimal {
	return percentage(o.TotalEmbryos, o.TotalOocytes)
}

func percentage(part, whole int) decimal.Decimal {
	if whole == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(part)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(whole))).
		Round(2)
}
