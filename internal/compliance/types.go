package compliance

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// CoverageType identifies a category of insurance coverage. Free-form strings
// from external sources (certificate uploads, Brokermatic payloads, seed data)
// are normalized through ParseCoverageType at the boundary.
type CoverageType string

const (
	CoverageGeneralLiability CoverageType = "general_liability"
	CoverageWorkersComp      CoverageType = "workers_compensation"
	CoverageAutoLiability    CoverageType = "auto_liability"
	CoverageExcessLiability  CoverageType = "excess_liability"
	CoverageEnvironmental    CoverageType = "environmental_liability"
	CoverageProfessional     CoverageType = "professional_liability"
)

// coverageOrder fixes the iteration order for evaluation so results are
// deterministic regardless of map ordering.
var coverageOrder = []CoverageType{
	CoverageGeneralLiability,
	CoverageWorkersComp,
	CoverageAutoLiability,
	CoverageExcessLiability,
	CoverageEnvironmental,
	CoverageProfessional,
}

// CoverageOrder returns the canonical coverage evaluation order
func CoverageOrder() []CoverageType {
	order := make([]CoverageType, len(coverageOrder))
	copy(order, coverageOrder)
	return order
}

// coverageAliases maps legacy and external spellings onto the closed set.
var coverageAliases = map[string]CoverageType{
	"gl":                      CoverageGeneralLiability,
	"general_liability":       CoverageGeneralLiability,
	"workers_comp":            CoverageWorkersComp,
	"workers_compensation":    CoverageWorkersComp,
	"auto":                    CoverageAutoLiability,
	"auto_liability":          CoverageAutoLiability,
	"commercial_auto":         CoverageAutoLiability,
	"excess":                  CoverageExcessLiability,
	"excess_liability":        CoverageExcessLiability,
	"umbrella":                CoverageExcessLiability,
	"umbrella_liability":      CoverageExcessLiability,
	"environmental":           CoverageEnvironmental,
	"environmental_liability": CoverageEnvironmental,
	"professional":            CoverageProfessional,
	"professional_liability":  CoverageProfessional,
}

// ParseCoverageType normalizes a free-form coverage type string
func ParseCoverageType(s string) (CoverageType, bool) {
	ct, ok := coverageAliases[strings.ToLower(strings.TrimSpace(s))]
	return ct, ok
}

// Label returns a human-readable name for the coverage type
func (c CoverageType) Label() string {
	return strings.ReplaceAll(string(c), "_", " ")
}

// Limit names used in requirement specifications and certificate records
const (
	LimitEachOccurrence      = "eachOccurrence"
	LimitAggregate           = "aggregate"
	LimitCombinedSingleLimit = "combinedSingleLimit"
)

// Endorsement flags a requirement may demand on a certificate
const (
	FlagAdditionalInsured       = "additionalInsured"
	FlagWaiverOfSubrogation     = "waiverOfSubrogation"
	FlagPrimaryNonContributory  = "primaryNonContributory"
)

// GapKind classifies why a certificate fails to satisfy a requirement
type GapKind string

const (
	GapMissingCoverage    GapKind = "missing_coverage"
	GapInsufficientLimits GapKind = "insufficient_limits"
	GapMissingFlag        GapKind = "missing_flag"
	GapExpired            GapKind = "expired"
	GapExpiringSoon       GapKind = "expiring_soon"
)

// Severity grades a gap for display and alerting
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// CoverageStatus is the per-coverage verdict
type CoverageStatus string

const (
	CoveragePass    CoverageStatus = "pass"
	CoverageFail    CoverageStatus = "fail"
	CoverageWarning CoverageStatus = "warning"
)

// Status is the aggregate vendor-level verdict. "partial" is a display label
// derived by callers when some coverages passed; the evaluator never emits it.
type Status string

const (
	StatusCompliant    Status = "compliant"
	StatusNonCompliant Status = "non_compliant"
)

// ExpiringSoonDays is the window inside which an otherwise-passing
// certificate is flagged as near expiration.
const ExpiringSoonDays = 30

// Gap is one specific reason a certificate fails (or nearly fails) a
// requirement.
type Gap struct {
	CoverageType CoverageType `json:"coverageType"`
	Kind         GapKind      `json:"kind"`
	LimitName    string       `json:"limitName,omitempty"`
	Flag         string       `json:"flag,omitempty"`
	Required     int64        `json:"required,omitempty"`
	Actual       int64        `json:"actual,omitempty"`
	Message      string       `json:"message"`
	Severity     Severity     `json:"severity"`
}

// CoverageRequirement specifies what one coverage type must provide.
// A coverage type absent from Requirements is simply not required.
type CoverageRequirement struct {
	MinLimits     map[string]int64 `json:"minLimits,omitempty"`
	RequiredFlags []string         `json:"requiredFlags,omitempty"`
}

// Requirements maps coverage types to their minimum requirements
type Requirements map[CoverageType]CoverageRequirement

// ErrInvalidRequirement marks a malformed requirement specification.
// Configuration errors fail loudly; they are never downgraded to
// "not required".
var ErrInvalidRequirement = errors.New("invalid requirement specification")

// Validate checks the requirement specification for configuration errors
func (r Requirements) Validate() error {
	for _, ct := range coverageOrder {
		req, ok := r[ct]
		if !ok {
			continue
		}
		for _, name := range sortedLimitNames(req.MinLimits) {
			if req.MinLimits[name] < 0 {
				return fmt.Errorf("%w: negative minimum %s for %s", ErrInvalidRequirement, name, ct)
			}
		}
	}
	return nil
}

// CertificateInput is the evaluator's view of one certificate of insurance.
// Missing limits are treated as 0 and missing flags as false. A nil
// expiration date means the policy never expires; this is a deliberate
// permissive default for records ingested without a parsed date.
type CertificateInput struct {
	CoverageType   CoverageType
	PolicyNumber   string
	Limits         map[string]int64
	Flags          map[string]bool
	ExpirationDate *time.Time
}

// CoverageResult is the per-coverage portion of an evaluation verdict
type CoverageResult struct {
	CoverageType        CoverageType   `json:"coverageType"`
	Status              CoverageStatus `json:"status"`
	Found               bool           `json:"found"`
	PolicyNumber        string         `json:"policyNumber,omitempty"`
	ExpirationDate      *time.Time     `json:"expirationDate,omitempty"`
	DaysUntilExpiration *int           `json:"daysUntilExpiration,omitempty"`
}

// Result is the full evaluation verdict. It is a pure function of its
// inputs: re-evaluating unchanged inputs yields an identical result.
type Result struct {
	Status    Status           `json:"overallStatus"`
	CheckedAt time.Time        `json:"checkedAt"`
	Coverages []CoverageResult `json:"coverageResults"`
	Gaps      []Gap            `json:"gaps"`
}

// GapMessages returns the human-readable message of every gap, in order
func (r *Result) GapMessages() []string {
	messages := make([]string, 0, len(r.Gaps))
	for _, g := range r.Gaps {
		messages = append(messages, g.Message)
	}
	return messages
}

// CriticalGaps returns only the blocking gaps
func (r *Result) CriticalGaps() []Gap {
	var critical []Gap
	for _, g := range r.Gaps {
		if g.Severity == SeverityCritical {
			critical = append(critical, g)
		}
	}
	return critical
}
