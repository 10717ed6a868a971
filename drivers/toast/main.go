package main

import (
	tap "github.com/datazip-inc/tap-toast"
	driver "github.com/datazip-inc/tap-toast/drivers/toast/internal"
)

func main() {
	driver := &driver.Toast{}
	tap.RegisterDriver(driver)
}
