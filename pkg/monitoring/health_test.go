package monitoring

import (
	"testing"
)

func TestCheckHealthAllHealthy(t *testing.T) {
	hc := NewHealthChecker("stagefinder", "test")
	hc.AddCheck("always", func() CheckResult {
		return CheckResult{Status: StatusHealthy}
	})

	status := hc.CheckHealth()
	if status.Status != StatusHealthy {
		t.Fatalf("expected healthy, got %s", status.Status)
	}
	if status.Service != "stagefinder" {
		t.Fatalf("unexpected service %q", status.Service)
	}
}

func TestCheckHealthUnhealthyWins(t *testing.T) {
	hc := NewHealthChecker("stagefinder", "test")
	hc.AddCheck("ok", func() CheckResult { return CheckResult{Status: StatusHealthy} })
	hc.AddCheck("bad", func() CheckResult { return CheckResult{Status: StatusUnhealthy} })

	if status := hc.CheckHealth(); status.Status != StatusUnhealthy {
		t.Fatalf("expected unhealthy, got %s", status.Status)
	}
}

func TestConfigurationHealthCheck(t *testing.T) {
	check := ConfigurationHealthCheck(map[string]string{"DATABASE_URL": "postgres://x"})
	if result := check(); result.Status != StatusHealthy {
		t.Fatalf("expected healthy, got %s", result.Status)
	}

	check = ConfigurationHealthCheck(map[string]string{"DATABASE_URL": ""})
	if result := check(); result.Status != StatusUnhealthy {
		t.Fatalf("expected unhealthy, got %s", result.Status)
	}
}
