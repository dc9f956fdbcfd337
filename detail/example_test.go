package detail_test

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/fanout/auth"
	"github.com/jonwraymond/fanout/detail"
	"github.com/jonwraymond/fanout/fanout"
	"github.com/jonwraymond/fanout/pool"
)

func ExampleService_GetAppointmentDetail() {
	p := pool.New(pool.Config{Workers: 8})
	defer p.Close()

	clients := detail.NewSimulatedClients(map[string]detail.Profile{
		detail.DependencyAccount: {FailureRate: 1},
	})
	svc := detail.NewService(clients, fanout.NewAggregator(fanout.NewGuard(p)), detail.WithDeadline(time.Second))

	staff := &auth.Identity{StaffID: "s-1", ClinicID: "clinic-1", Roles: []string{"doctor"}}
	d, err := svc.GetAppointmentDetail(context.Background(), staff, 42)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println(d.Treatment.Doctor)
	fmt.Println(d.InsuranceCard.Unavailable)
	fmt.Println(d.Degraded)
	// Output:
	// doctor-0
	// true
	// [get patient insurance card]
}
