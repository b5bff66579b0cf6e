package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/segyhp/client-followup/pkg/utils"
)

// Client is a loan prospect tracked by the agent.
type Client struct {
	ID                  string    `json:"id"`
	NameOfCustomer      string    `json:"nameOfCustomer"`
	NameOfCoApplicant   string    `json:"nameOfCoApplicant"`
	ContactNumber       string    `json:"contactNumber"`
	Referral            string    `json:"referral"`
	RequiredLoanAmount  string    `json:"requiredLoanAmount"`
	SecurityInformation string    `json:"securityInformation"`
	LoginBankName       string    `json:"loginBankName"`
	FollowUpDate        *string   `json:"followUpDate"`
	FollowUpCompleted   bool      `json:"followUpCompleted"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// HasFollowUp reports whether a follow-up date is set.
func (c *Client) HasFollowUp() bool {
	return c.FollowUpDate != nil && *c.FollowUpDate != ""
}

// LoanAmount parses RequiredLoanAmount. ok is false for blank or free-text amounts.
func (c *Client) LoanAmount() (decimal.Decimal, bool) {
	return utils.ParseAmount(c.RequiredLoanAmount)
}

// FollowUpStatus is the temporal classification of a follow-up date relative to now.
type FollowUpStatus string

const (
	FollowUpNone     FollowUpStatus = "none"
	FollowUpOverdue  FollowUpStatus = "overdue"
	FollowUpToday    FollowUpStatus = "today"
	FollowUpUpcoming FollowUpStatus = "upcoming"
	FollowUpInvalid  FollowUpStatus = "invalid"
)

// Badge maps a status onto the list badge shown next to a client.
func (s FollowUpStatus) Badge() string {
	switch s {
	case FollowUpOverdue:
		return "urgent"
	case FollowUpToday:
		return "today"
	default:
		return "dueSoon"
	}
}

// List filters
const (
	FilterAll      = "all"
	FilterToday    = "today"
	FilterUpcoming = "upcoming"
	FilterOverdue  = "overdue"
)

// DTOs for requests and responses

// ClientRequest is the create/edit payload. Fields are trimmed before validation.
type ClientRequest struct {
	NameOfCustomer      string  `json:"nameOfCustomer" validate:"required"`
	NameOfCoApplicant   string  `json:"nameOfCoApplicant"`
	ContactNumber       string  `json:"contactNumber" validate:"required,phone10"`
	Referral            string  `json:"referral"`
	RequiredLoanAmount  string  `json:"requiredLoanAmount"`
	SecurityInformation string  `json:"securityInformation"`
	LoginBankName       string  `json:"loginBankName" validate:"required"`
	FollowUpDate        *string `json:"followUpDate"`
}

type SetCompletedRequest struct {
	Completed *bool `json:"completed" validate:"required"`
}

type ListQuery struct {
	Filter string
	Search string
}

// SaveResult separates the persistence outcome from best-effort reminder reconciliation.
type SaveResult struct {
	Client          *Client `json:"client"`
	ReminderWarning error   `json:"-"`
}

type DeleteResult struct {
	ClientID        string `json:"clientId"`
	ReminderWarning error  `json:"-"`
}

// ClientView decorates a client with derived display fields.
type ClientView struct {
	*Client
	FollowUpDay         string         `json:"followUpDay,omitempty"`
	Status              FollowUpStatus `json:"status"`
	Badge               string         `json:"badge,omitempty"`
	LoanAmountFormatted string         `json:"loanAmountFormatted,omitempty"`
}

type Dashboard struct {
	TotalClients        int           `json:"totalClients"`
	DueToday            []*ClientView `json:"dueToday"`
	Overdue             []*ClientView `json:"overdue"`
	Upcoming            []*ClientView `json:"upcoming"`
	PipelineAmount      string        `json:"pipelineAmount"`
	InvalidFollowUpDays int           `json:"invalidFollowUpDays"`
}
