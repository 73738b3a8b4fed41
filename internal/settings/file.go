package settings

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/AlexsanderHamir/dbpool/internal/poolerr"
)

// fileKeys enumerates the flat key/value external form from spec §6.
// Order matches the spec table; every key is required.
var fileKeys = []string{
	"initial.max.pool.size",
	"initial.pool.size",
	"connection.timeout.amount",
	"connection.timeout.unit",
	"connection.leak.threshold.amount",
	"connection.leak.threshold.unit",
	"connection.validation.timeout.seconds",
	"connection.leak.detector.service.interval",
	"connection.leak.detector.service.interval.unit",
	"high.load.threshold",
	"low.load.threshold",
	"maximum.pool.size",
	"high.load.growth.factor",
	"high.load.connection.growth.factor",
	"maximum.connection.growth.amount",
	"low.load.pool.shrink.factor",
	"low.load.hysteresis.count",
}

// ParseFile reads a line-oriented "key = value" properties file — the
// external form of spec §6 — and builds a validated Settings. Absence
// of any required key is a fatal ConfigMissing, matching the teacher's
// config_validation.go style of accumulating and reporting every
// problem rather than stopping at the first.
func ParseFile(path string) (Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening settings file: %w", poolerr.ErrConfigMissing, err)
	}
	defer f.Close()
	return ParseReader(f)
}

// ParseReader is ParseFile without the filesystem, exposed so tests can
// feed a string.Reader directly.
func ParseReader(r io.Reader) (Settings, error) {
	values, err := readKeyValues(r)
	if err != nil {
		return nil, err
	}

	var missing []string
	get := func(key string) string {
		v, ok := values[key]
		if !ok {
			missing = append(missing, key)
		}
		return v
	}

	for _, k := range fileKeys {
		get(k)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", poolerr.ErrConfigMissing, strings.Join(missing, ", "))
	}

	initialFill, err := strconv.Atoi(values["initial.pool.size"])
	if err != nil {
		return nil, fmt.Errorf("invalid initial.pool.size: %w", err)
	}
	baseline, err := strconv.Atoi(values["initial.max.pool.size"])
	if err != nil {
		return nil, fmt.Errorf("invalid initial.max.pool.size: %w", err)
	}
	maxCapacity, err := strconv.Atoi(values["maximum.pool.size"])
	if err != nil {
		return nil, fmt.Errorf("invalid maximum.pool.size: %w", err)
	}
	maxTopUp, err := strconv.Atoi(values["maximum.connection.growth.amount"])
	if err != nil {
		return nil, fmt.Errorf("invalid maximum.connection.growth.amount: %w", err)
	}
	hysteresis, err := strconv.Atoi(values["low.load.hysteresis.count"])
	if err != nil {
		return nil, fmt.Errorf("invalid low.load.hysteresis.count: %w", err)
	}
	highLoad, err := strconv.ParseFloat(values["high.load.threshold"], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid high.load.threshold: %w", err)
	}
	lowLoad, err := strconv.ParseFloat(values["low.load.threshold"], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid low.load.threshold: %w", err)
	}
	growFactor, err := strconv.ParseFloat(values["high.load.growth.factor"], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid high.load.growth.factor: %w", err)
	}
	topUpFactor, err := strconv.ParseFloat(values["high.load.connection.growth.factor"], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid high.load.connection.growth.factor: %w", err)
	}
	shrinkFactor, err := strconv.ParseFloat(values["low.load.pool.shrink.factor"], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid low.load.pool.shrink.factor: %w", err)
	}
	validationTimeoutSec, err := strconv.Atoi(values["connection.validation.timeout.seconds"])
	if err != nil {
		return nil, fmt.Errorf("invalid connection.validation.timeout.seconds: %w", err)
	}

	acquireTimeout, err := parseDurationField(values["connection.timeout.amount"], values["connection.timeout.unit"])
	if err != nil {
		return nil, err
	}
	leakThreshold, err := parseDurationField(values["connection.leak.threshold.amount"], values["connection.leak.threshold.unit"])
	if err != nil {
		return nil, err
	}
	leakScanInterval, err := parseDurationField(
		values["connection.leak.detector.service.interval"],
		values["connection.leak.detector.service.interval.unit"],
	)
	if err != nil {
		return nil, err
	}

	s := &static{
		baselineCapacity:  baseline,
		initialFill:       initialFill,
		maxCapacity:       maxCapacity,
		acquireTimeout:    acquireTimeout,
		validationTimeout: secondsToDuration(validationTimeoutSec),
		leakThreshold:     leakThreshold,
		leakScanInterval:  leakScanInterval,
		highLoadRatio:     highLoad,
		lowLoadRatio:      lowLoad,
		growFactor:        growFactor,
		topUpFactor:       topUpFactor,
		maxTopUpCount:     maxTopUp,
		shrinkFactor:      shrinkFactor,
		lowLoadHysteresis: hysteresis,
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// readKeyValues parses "key = value" lines, ignoring blank lines and
// "#"-prefixed comments. Unknown keys are kept and simply never
// consulted, per spec §6 ("unknown keys are ignored").
func readKeyValues(r io.Reader) (map[string]string, error) {
	values := make(map[string]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.Index(line, "=")
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		val := strings.TrimSpace(line[idx+1:])
		values[key] = val
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	return values, nil
}
