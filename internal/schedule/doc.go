// Package schedule parses the schedule strings used in the kiosk config:
// refresh intervals for the data sources and the optional cron window for
// maintenance reboots.
package schedule
