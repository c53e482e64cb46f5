// Package domain holds typed identifiers shared across modules.
//
// IDs are parsed once at trust boundaries (HTTP, config, store scans) and passed
// around as distinct types so an agent ID cannot be handed to a plan parameter.
package domain

import (
	"database/sql/driver"
	"fmt"

	"github.com/google/uuid"

	dErrors "github.com/primedepthlabs/Loan-Admin-sub000/pkg/domain-errors"
)

type (
	AgentID      uuid.UUID
	PlanID       uuid.UUID
	CommissionID uuid.UUID
	RewardID     uuid.UUID
)

func parseUUID(kind, s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" must not be nil")
	}
	return parsed, nil
}

func ParseAgentID(s string) (AgentID, error) {
	u, err := parseUUID("agent_id", s)
	return AgentID(u), err
}

func ParsePlanID(s string) (PlanID, error) {
	u, err := parseUUID("plan_id", s)
	return PlanID(u), err
}

func ParseCommissionID(s string) (CommissionID, error) {
	u, err := parseUUID("commission_id", s)
	return CommissionID(u), err
}

func ParseRewardID(s string) (RewardID, error) {
	u, err := parseUUID("reward_id", s)
	return RewardID(u), err
}

func (id AgentID) String() string      { return uuid.UUID(id).String() }
func (id PlanID) String() string       { return uuid.UUID(id).String() }
func (id CommissionID) String() string { return uuid.UUID(id).String() }
func (id RewardID) String() string     { return uuid.UUID(id).String() }

func (id AgentID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id PlanID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }

// Value and Scan let typed IDs travel through database/sql directly.

func (id AgentID) Value() (driver.Value, error)      { return uuid.UUID(id).String(), nil }
func (id PlanID) Value() (driver.Value, error)       { return uuid.UUID(id).String(), nil }
func (id CommissionID) Value() (driver.Value, error) { return uuid.UUID(id).String(), nil }
func (id RewardID) Value() (driver.Value, error)     { return uuid.UUID(id).String(), nil }

func (id *AgentID) Scan(src any) error      { return scanUUID((*uuid.UUID)(id), src) }
func (id *PlanID) Scan(src any) error       { return scanUUID((*uuid.UUID)(id), src) }
func (id *CommissionID) Scan(src any) error { return scanUUID((*uuid.UUID)(id), src) }
func (id *RewardID) Scan(src any) error     { return scanUUID((*uuid.UUID)(id), src) }

func scanUUID(dst *uuid.UUID, src any) error {
	if err := dst.Scan(src); err != nil {
		return fmt.Errorf("scan id: %w", err)
	}
	return nil
}

func (id AgentID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id PlanID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id CommissionID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}
func (id RewardID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *AgentID) UnmarshalText(b []byte) error {
	parsed, err := ParseAgentID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *PlanID) UnmarshalText(b []byte) error {
	parsed, err := ParsePlanID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *CommissionID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id *RewardID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

// NewCommissionID and NewRewardID mint random identifiers for rows this module creates.
func NewCommissionID() CommissionID { return CommissionID(uuid.New()) }
func NewRewardID() RewardID         { return RewardID(uuid.New()) }
