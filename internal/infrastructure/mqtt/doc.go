// Package mqtt provides the MQTT client used for Pawfeed telemetry
// and remote commands.
//
// The client wraps paho.mqtt.golang with connection management, automatic
// reconnection with exponential backoff, subscription restoration on
// reconnect, and Last Will and Testament for offline detection.
//
// Topic scheme:
//
//	pawfeed/feeder/event/{type}      feeder activity events
//	pawfeed/feeder/status            retained feeder status
//	pawfeed/feeder/weight            smoothed scale readings
//	pawfeed/feeder/command/{action}  inbound commands (feed, tare)
//	pawfeed/health/alert/{metric}    health alerts
//	pawfeed/health/metrics           periodic health snapshots
//	pawfeed/system/status            daemon online/offline (retained, LWT)
//	pawfeed/system/maintenance/{a}   maintenance action notifications
//
// Use the Topics helper to build topic strings rather than formatting
// them inline.
package mqtt
