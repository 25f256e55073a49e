package main

import "flag"

func parseFlags() (iface, mission, logLevel, logFile, redisAddr string, redisDB int) {
	flag.StringVar(&iface, "iface", "can0", "SocketCAN interface name")
	flag.StringVar(&mission, "mission", "", "run a JSON simulation scenario instead of real hardware")
	flag.StringVar(&logLevel, "log", "info", "trace|debug|info|warn|error|critical")
	flag.StringVar(&logFile, "log-file", "", "log file path (stdout only if empty)")
	flag.StringVar(&redisAddr, "redis-addr", "localhost:6379", "diagnostics Redis address")
	flag.IntVar(&redisDB, "redis-db", 0, "diagnostics Redis DB index")
	flag.Parse()
	return
}
