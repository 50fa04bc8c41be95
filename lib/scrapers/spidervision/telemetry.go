package spidervision

import "spidervision-report/lib/telemetry"

var tracer = telemetry.Tracer("spidervision-report/lib/scrapers/spidervision")
