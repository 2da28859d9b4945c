/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: classifier.go
Description: Permission filter applied to exported components. A component is judged by the most
restrictive permission guarding it, either on the component itself or on one of its filters.
*/

package permissions

import "github.com/kleascm/intentscout/pkg/manifest"

// Decision is the classifier verdict for one component
type Decision struct {
	Keep bool
	// Level is the most restrictive level found, LevelNormal when unguarded
	Level Level
	// Permission is the name that produced Level
	Permission string
}

// Classifier keeps components whose guard is at or below a maximum level
type Classifier struct {
	table *Table
	max   Level
}

// NewClassifier creates a classifier. Pass Unbounded as max to keep everything.
func NewClassifier(table *Table, max Level) *Classifier {
	if table == nil {
		table = DefaultTable()
	}
	return &Classifier{table: table, max: max}
}

// Max returns the configured ceiling
func (c *Classifier) Max() Level { return c.max }

// Classify returns the level of a single permission name
func (c *Classifier) Classify(name string) Level {
	return c.table.Level(name)
}

// Evaluate decides whether a component passes the permission filter.
// Components without any permission are always kept.
func (c *Classifier) Evaluate(comp manifest.ComponentRecord) Decision {
	perms := comp.Permissions()
	if len(perms) == 0 {
		return Decision{Keep: true, Level: LevelNormal}
	}

	decision := Decision{Level: LevelNormal}
	for i, p := range perms {
		level := c.Classify(p)
		if i == 0 || level > decision.Level {
			decision.Level = level
			decision.Permission = p
		}
	}
	decision.Keep = decision.Level <= c.max
	return decision
}
