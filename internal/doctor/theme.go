package doctor

import (
	"fmt"

	"github.com/rileyhilliard/sysmon/internal/errors"
	"github.com/rileyhilliard/sysmon/internal/theme"
)

// ThemeCheck loads the configured theme.
type ThemeCheck struct {
	Dir   string
	Theme string
	Opts  theme.Options
}

func (c *ThemeCheck) Name() string     { return "theme" }
func (c *ThemeCheck) Category() string { return CategoryTheme }

func (c *ThemeCheck) Run() CheckResult {
	if c.Theme == "" || c.Theme == theme.DefaultName {
		return pass(c.Name(), "Built in Default theme")
	}
	if _, ok := theme.Path(c.Dir, c.Theme); !ok {
		return fail(c.Name(), fmt.Sprintf("Theme %s not found", c.Theme),
			fmt.Sprintf("Available: %v. Run 'sysmon themes list'", theme.List(c.Dir)))
	}
	if _, err := theme.Load(c.Dir, c.Theme, c.Opts); err != nil {
		return fail(c.Name(), errors.Oneline(err), "Fix the theme file or pick another with 'sysmon themes pick'")
	}
	return pass(c.Name(), fmt.Sprintf("Theme %s", c.Theme))
}
