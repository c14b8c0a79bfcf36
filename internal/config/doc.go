// Package config provides configuration loading for goalfeed.
//
// The configuration is stored in goalfeed.json and read with cleanenv, so
// every scalar can be overridden by a GOALFEED_* environment variable.
//
// # Configuration File Structure
//
//	{
//	  "api": {
//	    "baseURL": "https://goals.example.com",
//	    "routes": {
//	      "comment/edit": "/api/fauna/goals/edit-comment"
//	    }
//	  },
//	  "toast": { "dismissAfter": "4s" },
//	  "metrics": { "namespace": "goalfeed" },
//	  "stream": { "addr": "localhost:7070" },
//	  "log": { "level": "info" },
//	  "identity": {
//	    "id": "301",
//	    "name": "jdoe",
//	    "firstName": "Jane"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.LoadFromWorkingDir()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("API:", cfg.API.BaseURL)
package config
