package metrics

const (
	// run level
	MetricRunInfo           = "netbackup_run_info"
	MetricRunTimestamp      = "netbackup_last_run_timestamp_seconds"
	MetricDevicesTotal      = "netbackup_devices"
	MetricBackupsSuccessful = "netbackup_backups_successful"

	// device level
	MetricDeviceUp       = "netbackup_device_backup_success"
	MetricDeviceDuration = "netbackup_device_backup_duration_seconds"
)
