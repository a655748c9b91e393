// nc-control is the real-time control core's main process: it loads the
// startup config, wires the motion dispatcher and thermal controller to a
// shared tick source, and runs the cooperative main loop until SIGINT or
// SIGTERM asks it to stop.
//
// Usage:
//
//	nc-control -config /etc/nccore/control.cfg [options]
//
// Options:
//
//	-config string     Startup config file (required)
//	-tty string        Primary input device (default: /dev/ttyACM0)
//	-aux string         Secondary input device, empty to disable
//	-limit-pin int      Limit switch GPIO pin (BCM numbering, default: 17)
//	-logfile string     Log file path (default: stderr)
//	-loglevel string    DEBUG, INFO, WARN, or ERROR (default: INFO)
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"nccore/internal/io/auxinput"
	"nccore/internal/io/gpiolimit"
	"nccore/internal/io/ttyinput"
	"nccore/internal/motion"
	"nccore/internal/thermal"
	"nccore/internal/thermal/hwio"
	"nccore/internal/tick"
	"nccore/pkg/config"
	"nccore/pkg/integrity"
	"nccore/pkg/log"
)

const (
	firmwareVersion  = "nc-control-dev"
	hardwarePlatform = "generic"
)

func main() {
	configFile := flag.String("config", "", "Startup config file (required)")
	ttyDevice := flag.String("tty", "/dev/ttyACM0", "Primary input device")
	auxDevice := flag.String("aux", "", "Secondary input device, empty to disable")
	limitPin := flag.Int("limit-pin", 17, "Limit switch GPIO pin (BCM numbering)")
	logFile := flag.String("logfile", "", "Log file path (default: stderr)")
	logLevel := flag.String("loglevel", "INFO", "DEBUG, INFO, WARN, or ERROR")
	flag.Parse()

	if *configFile == "" {
		fmt.Fprintln(os.Stderr, "Error: -config is required")
		flag.Usage()
		os.Exit(1)
	}

	logger := log.New("nccore")
	logger.SetLevel(log.ParseLevel(*logLevel))
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logger.SetWriter(f)
	}

	logger.Info("nc-control starting")

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.WithError(err).Error("failed to load config")
		os.Exit(1)
	}

	motionState := motion.NewState(firmwareVersion, hardwarePlatform)
	mc := motion.New(motionState, logger)

	primary, err := ttyinput.Open(ttyinput.Config{Device: *ttyDevice})
	if err != nil {
		logger.WithError(err).Error("failed to open primary input device")
		os.Exit(1)
	}
	defer primary.Close()
	mc.Primary = primary

	if *auxDevice != "" {
		aux, err := auxinput.Open(auxinput.Config{Device: *auxDevice})
		if err != nil {
			logger.WithError(err).Error("failed to open secondary input device")
			os.Exit(1)
		}
		defer aux.Close()
		mc.Secondary = aux
	}

	limitSwitch, err := gpiolimit.NewRealReader(*limitPin)
	if err != nil {
		logger.WithError(err).Warn("limit switch GPIO unavailable, running without it")
	} else {
		defer limitSwitch.Close()
		mc.LimitSwitch = limitSwitch
	}

	tc := buildThermalController(cfg, logger)

	mc.IntegrityPairs = []integrity.Pair{
		{Owner: "motion.State", Start: motionState.Start, End: motionState.End},
	}

	tickSource := tick.New(tick.Config{
		On10ms:  func() { tc.Tick10ms() },
		On100ms: func() { tc.Tick100ms() },
	})
	mc.Tick = tickSource
	tickSource.Run()
	defer tickSource.Stop()

	stop := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		close(stop)
	}()

	logger.Info("nc-control ready")
	mc.Run(stop)
	logger.Info("nc-control stopped")
}

// buildThermalController wires one heater/sensor/PID channel per
// "heater <name>" section found in cfg. Each channel's PWM/ADC pair is the
// software reference implementation in internal/thermal/hwio; a later MCU
// transport swaps these for real hardware-backed adapters without touching
// the dispatcher wiring above.
func buildThermalController(cfg *config.Config, logger *log.Logger) *thermal.Controller {
	tc := thermal.New(logger)
	tc.SetAlarmFunc(func(err error) {
		logger.WithError(err).Error("thermal integrity alarm")
	})

	for _, sec := range cfg.GetPrefixSections("heater ") {
		name := sec.Name()[len("heater "):]

		pidCfg := thermal.PIDConfig{}
		pidCfg.Kp, _ = sec.GetFloat("pid_kp", 1.0)
		pidCfg.Ki, _ = sec.GetFloat("pid_ki", 0.0)
		pidCfg.Kd, _ = sec.GetFloat("pid_kd", 0.0)
		pidCfg.OutputMin = 0
		pidCfg.OutputMax = 100
		pidCfg.Epsilon, _ = sec.GetFloat("pid_epsilon", 0.1)
		strict, _ := sec.GetBool("pid_strict_anti_windup", false)
		pidCfg.StrictAntiWindup = strict

		sensorCfg := thermal.SensorConfig{}
		samples, _ := sec.GetInt("sensor_samples_per_reading", 4)
		sensorCfg.SamplesPerReading = samples
		retries, _ := sec.GetInt("sensor_retries", 2)
		sensorCfg.Retries = retries
		sensorCfg.VarianceThreshold, _ = sec.GetFloat("sensor_variance_threshold", 5.0)
		sensorCfg.DisconnectTemp, _ = sec.GetFloat("sensor_disconnect_temp", 300.0)
		sensorCfg.NoPowerTemp, _ = sec.GetFloat("sensor_no_power_temp", -10.0)
		sensorCfg.Slope, _ = sec.GetFloat("sensor_slope", 1.0)
		sensorCfg.Offset, _ = sec.GetFloat("sensor_offset", 0.0)

		heaterCfg := thermal.HeaterConfig{}
		heaterCfg.AmbientTimeoutSec, _ = sec.GetFloat("ambient_timeout_sec", 120.0)
		heaterCfg.RegulationTimeoutSec, _ = sec.GetFloat("regulation_timeout_sec", 20.0)
		heaterCfg.AmbientTemp, _ = sec.GetFloat("ambient_temp", 30.0)
		heaterCfg.OverheatTemp, _ = sec.GetFloat("overheat_temp", 280.0)
		freqHz, _ := sec.GetInt("pwm_freq_hz", 10)
		heaterCfg.PWMFreqHz = freqHz

		sensor := thermal.NewSensor(sensorCfg)
		pid := thermal.NewPID(pidCfg)
		pwm := hwio.NewSoftPWM(1, 1000)
		adc := &hwio.SoftADC{}
		heater := thermal.NewHeater(heaterCfg, sensor, pid, pwm, adc, 0)

		tc.AddChannel(&thermal.Channel{
			Name:   name,
			Heater: heater,
			Sensor: sensor,
			PID:    pid,
			PWM:    pwm,
			ADC:    adc,
			ADCCh:  0,
		})
		logger.WithFields(log.Fields{"heater": name}).Info("registered heater channel")
	}

	for _, name := range cfg.UnusedSections() {
		logger.WithFields(log.Fields{"section": name}).Warn("unused config section")
	}

	return tc
}
