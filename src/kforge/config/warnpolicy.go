package config

import "fmt"

// WarnPolicy controls how compiler warnings are treated by the kernel
// build: left alone, promoted to errors, or forced back to warnings.
type WarnPolicy string

const (
	// WarnDefault leaves the tree's own warning configuration untouched
	WarnDefault WarnPolicy = "default"
	// WarnForceError promotes warnings to hard errors (CONFIG_WERROR on)
	WarnForceError WarnPolicy = "force-error"
	// WarnForceNoError demotes warnings back to non-fatal (CONFIG_WERROR off)
	WarnForceNoError WarnPolicy = "force-no-error"
)

// warnPolicyValue adapts WarnPolicy to pflag.Value. It is registered with
// shorthand W so that -Werror and -Wno-error parse as the shorthand with
// an attached value, matching the traditional compiler spelling.
type warnPolicyValue struct {
	target *WarnPolicy
}

func newWarnPolicyValue(target *WarnPolicy) *warnPolicyValue {
	*target = WarnDefault
	return &warnPolicyValue{target: target}
}

func (v *warnPolicyValue) String() string {
	if v.target == nil {
		return string(WarnDefault)
	}
	return string(*v.target)
}

func (v *warnPolicyValue) Set(s string) error {
	var next WarnPolicy
	switch s {
	case "error":
		next = WarnForceError
	case "no-error":
		next = WarnForceNoError
	default:
		return fmt.Errorf("must be 'error' or 'no-error', got %q", s)
	}

	// -Werror and -Wno-error are mutually exclusive; refuse the second
	// one instead of silently letting the last occurrence win.
	if *v.target != WarnDefault && *v.target != next {
		return fmt.Errorf("conflicting warning policy: %s already set", *v.target)
	}

	*v.target = next
	return nil
}

func (v *warnPolicyValue) Type() string {
	return "policy"
}
