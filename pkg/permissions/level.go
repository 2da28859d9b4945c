/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: level.go
Description: Android permission protection levels ordered from least to most restrictive.
LevelUnknown sorts above every concrete level so an unrecognized permission is only admitted
when the caller places no ceiling on the level.
*/

package permissions

import (
	"fmt"
	"strings"
)

// Level is a permission protection level
type Level int

const (
	LevelNormal Level = iota
	LevelDangerous
	LevelSignature
	LevelSignatureOrSystem
	LevelUnknown
)

// Unbounded is the threshold that admits every level, unknown included
const Unbounded = LevelUnknown

func (l Level) String() string {
	switch l {
	case LevelNormal:
		return "normal"
	case LevelDangerous:
		return "dangerous"
	case LevelSignature:
		return "signature"
	case LevelSignatureOrSystem:
		return "signatureOrSystem"
	case LevelUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// MarshalText renders the level by name
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// ParseLevel parses a concrete level name as written in the table file
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "normal":
		return LevelNormal, nil
	case "dangerous":
		return LevelDangerous, nil
	case "signature":
		return LevelSignature, nil
	case "signatureorsystem", "signature|system", "signature|privileged", "privileged":
		return LevelSignatureOrSystem, nil
	default:
		return LevelUnknown, fmt.Errorf("unknown permission level %q", s)
	}
}

// ParseThreshold parses a maximum-level flag. "any" and "unknown" lift the ceiling.
func ParseThreshold(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "any", "all", "none", "unknown":
		return Unbounded, nil
	}
	return ParseLevel(s)
}

// ThresholdString renders a threshold the way ParseThreshold accepts it
func ThresholdString(l Level) string {
	if l >= Unbounded {
		return "any"
	}
	return l.String()
}

// ParseProtectionLevel reads an android:protectionLevel attribute. The base level
// comes first and flags follow after '|'; privileged or system flags on a signature
// permission raise it to signatureOrSystem. Unparseable values yield LevelUnknown.
func ParseProtectionLevel(attr string) Level {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(attr)), "|")
	if len(parts) == 0 || parts[0] == "" {
		// Platform default when the attribute is omitted
		return LevelNormal
	}

	base, err := ParseLevel(parts[0])
	if err != nil {
		return LevelUnknown
	}
	if base == LevelSignature {
		for _, flag := range parts[1:] {
			if flag == "privileged" || flag == "system" {
				return LevelSignatureOrSystem
			}
		}
	}
	return base
}
