// Package config loads liveui.json, the configuration of the liveui
// command.
//
// # Configuration File Structure
//
//	{
//	  "name": "todo",
//	  "log": {
//	    "level": "debug",
//	    "format": "json"
//	  },
//	  "executor": {
//	    "maxPollsPerTick": 1000
//	  },
//	  "list": {
//	    "tag": "li",
//	    "maxRetained": 4096
//	  },
//	  "serve": {
//	    "addr": "localhost:8080",
//	    "tick": "500ms",
//	    "items": 8
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "namespace": "liveui"
//	  },
//	  "bench": {
//	    "items": 1000,
//	    "rounds": 200
//	  }
//	}
//
// Every field is optional. LIVEUI_ADDR, LIVEUI_LOG_LEVEL, LIVEUI_LOG_FORMAT
// and LIVEUI_TICK override the file.
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	logger := cfg.NewLogger(os.Stderr)
package config
