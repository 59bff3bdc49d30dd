package firewall

import (
	"strings"

	"golang.org/x/text/message"

	"grimm.is/palisade/internal/i18n"
	"grimm.is/palisade/internal/validation"
)

// Direction of traffic a rule matches.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

func directionOf(inbound bool) Direction {
	if inbound {
		return DirectionIn
	}
	return DirectionOut
}

// Action a rule takes on matching traffic.
type Action string

const (
	ActionAllow Action = "allow"
	ActionBlock Action = "block"
)

func actionOf(allow bool) Action {
	if allow {
		return ActionAllow
	}
	return ActionBlock
}

// RuleKind selects which payload of a RuleIntent applies.
type RuleKind string

const (
	KindProgram  RuleKind = "program"
	KindPort     RuleKind = "port"
	KindRemoteIP RuleKind = "remote-ip"
	KindLocalIP  RuleKind = "local-ip"
)

// RuleIntent is one request to create a rule. It is built per call and never
// stored; the OS firewall is the system of record.
type RuleIntent struct {
	Name      string
	Direction Direction
	Action    Action
	Kind      RuleKind

	Program  string
	Port     int
	Protocol string
	IP       string

	// Address is the parsed IP expression, set by validate.
	Address validation.IPExpression
}

// ProgramRule is an allow rule for one executable.
func ProgramRule(name, path string, inbound bool) RuleIntent {
	return RuleIntent{Name: name, Direction: directionOf(inbound), Action: ActionAllow, Kind: KindProgram, Program: path}
}

// PortRule is an allow rule for one local port.
func PortRule(name string, port int, inbound bool, protocol string) RuleIntent {
	return RuleIntent{Name: name, Direction: directionOf(inbound), Action: ActionAllow, Kind: KindPort, Port: port, Protocol: protocol}
}

// RemoteIPRule matches on the remote address.
func RemoteIPRule(name, ip string, inbound, allow bool) RuleIntent {
	return RuleIntent{Name: name, Direction: directionOf(inbound), Action: actionOf(allow), Kind: KindRemoteIP, IP: ip}
}

// LocalIPRule matches on the local address.
func LocalIPRule(name, ip string, inbound, allow bool) RuleIntent {
	return RuleIntent{Name: name, Direction: directionOf(inbound), Action: actionOf(allow), Kind: KindLocalIP, IP: ip}
}

// validate checks the intent and returns a normalized copy.
func (r RuleIntent) validate(p *message.Printer) (RuleIntent, error) {
	if err := validateName(p, r.Name); err != nil {
		return r, err
	}

	switch r.Kind {
	case KindProgram:
		if err := validation.ValidateProgramPath(r.Program); err != nil {
			return r, &InputError{Message: p.Sprintf(i18n.MsgProgramMissing, r.Program), Cause: err}
		}
	case KindPort:
		if err := validation.ValidatePortNumber(r.Port); err != nil {
			return r, &InputError{Message: p.Sprintf(i18n.MsgInvalidPort, r.Port), Cause: err}
		}
		if err := validation.ValidateProtocol(r.Protocol); err != nil {
			return r, &InputError{Message: p.Sprintf(i18n.MsgInvalidProtocol, r.Protocol), Cause: err}
		}
		r.Protocol = validation.NormalizeProtocol(r.Protocol)
	case KindRemoteIP, KindLocalIP:
		expr, err := validation.ParseIPExpression(r.IP)
		if err != nil {
			return r, &InputError{Message: p.Sprintf(i18n.MsgInvalidIP, r.IP), Cause: err}
		}
		r.Address = expr
	default:
		return r, &InputError{Message: "unknown rule kind: " + string(r.Kind)}
	}
	return r, nil
}

func validateName(p *message.Printer, name string) error {
	if strings.TrimSpace(name) == "" {
		return &InputError{Message: p.Sprintf(i18n.MsgEmptyRuleName)}
	}
	if err := validation.ValidateRuleName(name); err != nil {
		return &InputError{Message: p.Sprintf(i18n.MsgInvalidRuleName, err.Error()), Cause: err}
	}
	return nil
}

func validateExportPath(p *message.Printer, path string) error {
	if err := validation.ValidatePolicyPath(path); err != nil {
		return &InputError{Message: p.Sprintf(i18n.MsgInvalidPath, path), Cause: err}
	}
	return nil
}

func validateImportPath(p *message.Printer, path string) error {
	if err := validateExportPath(p, path); err != nil {
		return err
	}
	if err := validation.ValidatePolicyFile(path); err != nil {
		return &InputError{Message: p.Sprintf(i18n.MsgFileMissing, path), Cause: err}
	}
	return nil
}
