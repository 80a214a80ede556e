package ustar

import (
	"fmt"
	"strconv"
)

// TypeFlag is the single byte classifying a tar entry.
type TypeFlag byte

const (
	TypeNormal       TypeFlag = '0'
	TypeNormalLegacy TypeFlag = 0
	TypeHardLink     TypeFlag = '1'
	TypeSymLink      TypeFlag = '2'
	TypeChar         TypeFlag = '3'
	TypeBlock        TypeFlag = '4'
	TypeDirectory    TypeFlag = '5'
	TypeFIFO         TypeFlag = '6'
	TypeContiguous   TypeFlag = '7'

	// POSIX.1-2001 extended headers.
	TypeGlobalHeader   TypeFlag = 'g'
	TypeExtendedHeader TypeFlag = 'x'

	// Vendor extensions.
	TypeSolarisACL          TypeFlag = 'A'
	TypeSolarisExtendedAttr TypeFlag = 'E'
	TypeInodeOnly           TypeFlag = 'I'
	TypeObsoleteLongName    TypeFlag = 'N'
	TypePOSIXExtended       TypeFlag = 'X'

	// GNU extensions.
	TypeGNUDumpDir   TypeFlag = 'D'
	TypeGNULongLink  TypeFlag = 'K'
	TypeGNULongName  TypeFlag = 'L'
	TypeGNUMultiVol  TypeFlag = 'M'
	TypeGNUSparse    TypeFlag = 'S'
	TypeGNUVolHeader TypeFlag = 'V'
)

func (f TypeFlag) String() string {
	if f == 0 {
		return "NUL"
	}

	return strconv.QuoteRune(rune(f))
}

// Action is the processing policy associated with a TypeFlag.
type Action int

const (
	// ActionNormal is a regular file.
	ActionNormal Action = iota
	// ActionDirectory is a directory.
	ActionDirectory
	// ActionIgnore entries are skipped silently.
	ActionIgnore
	// ActionReportProceed entries are logged then processed like regular files.
	ActionReportProceed
	// ActionReportIgnore entries are logged then skipped. No type flag currently maps to it.
	ActionReportIgnore
	// ActionReportExtended entries are logged; they describe the entry that follows them.
	ActionReportExtended
	// ActionExtended entries carry data (a GNU long name) that applies to the entry that follows them.
	ActionExtended
	// ActionError entries cannot be processed and abort the whole archive.
	ActionError
)

var actionNames = [...]string{"Normal", "Directory", "Ignore", "ReportProceed", "ReportIgnore", "ReportExtended", "Extended", "Error"}

func (a Action) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return fmt.Sprintf("Action(%d)", int(a))
	}

	return actionNames[a]
}

// Report returns true for actions that should surface a diagnostic.
func (a Action) Report() bool {
	return a == ActionReportProceed || a == ActionReportIgnore || a == ActionReportExtended
}

// Ignore returns true for actions whose entries are skipped.
func (a Action) Ignore() bool {
	return a == ActionIgnore || a == ActionReportIgnore
}

// Extended returns true for actions whose entries modify the entry that follows.
func (a Action) Extended() bool {
	return a == ActionReportExtended || a == ActionExtended
}

// ActionOf maps a type flag to its action.
//
// The boolean is false if the type flag is not recognized.
func ActionOf(f TypeFlag) (Action, bool) {
	switch f {
	case TypeNormal, TypeNormalLegacy:
		return ActionNormal, true
	case TypeDirectory:
		return ActionDirectory, true
	case TypeHardLink, TypeChar, TypeBlock, TypeFIFO, TypeContiguous, TypeSolarisACL, TypeInodeOnly:
		return ActionReportProceed, true
	case TypeGlobalHeader, TypeExtendedHeader, TypeSolarisExtendedAttr, TypeObsoleteLongName, TypePOSIXExtended,
		TypeGNULongLink:
		return ActionReportExtended, true
	case TypeGNULongName:
		return ActionExtended, true
	case TypeGNUDumpDir, TypeGNUVolHeader:
		return ActionIgnore, true
	case TypeSymLink, TypeGNUMultiVol, TypeGNUSparse:
		return ActionError, true
	default:
		return ActionError, false
	}
}
