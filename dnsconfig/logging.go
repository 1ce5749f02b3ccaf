package dnsconfig

import (
	"fmt"
	"log"

	"gopkg.in/natefinch/lumberjack.v2"
)

// SetupLogging points the standard logger at logfile through lumberjack,
// the same rotation policy as the teacher's SetupLogging: 20MB files,
// 3 backups, 14 days.
func SetupLogging(logfile string) error {
	log.SetFlags(log.Lshortfile | log.Ltime)
	if logfile == "" {
		return fmt.Errorf("dnsconfig: no log file configured")
	}
	log.SetOutput(&lumberjack.Logger{
		Filename:   logfile,
		MaxSize:    20,
		MaxBackups: 3,
		MaxAge:     14,
	})
	return nil
}

// SetupCliLogging configures the standard logger for interactive use:
// no timestamps by default, file/line info when verbose is requested.
func SetupCliLogging(verbose bool) {
	if verbose {
		log.SetFlags(log.Lshortfile | log.Ltime)
	} else {
		log.SetFlags(0)
	}
}
