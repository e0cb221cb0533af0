package main

import (
	"context"
	"fmt"
	"time"

	"github.com/trezcool/ukaguzi/core"
	"github.com/trezcool/ukaguzi/core/school"
	"github.com/trezcool/ukaguzi/core/user"
)

// assignRegion gives an inspector active coverage of a region, looked up by code.
func (cli *commandLine) assignRegion(uname, code string) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)

	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{UsernameOrEmail: []string{uname, uname}})
	if err != nil {
		return err
	}
	if !usr.IsInspector() {
		return fmt.Errorf("%s is not an inspector", usr.Username)
	}

	regions, err := cli.schRepo.QueryRegions(ctx, nil)
	if err != nil {
		return err
	}
	var region school.Region
	for _, reg := range regions {
		if reg.Code == code {
			region = reg
			break
		}
	}
	if region.ID == "" {
		return fmt.Errorf("region %q: %w", code, school.ErrNotFound)
	}

	asg := school.Assignment{
		InspectorID: usr.ID,
		RegionID:    region.ID,
		AssignedAt:  time.Now().UTC(),
	}
	asg.SetActive(true)
	if _, err = cli.schRepo.CreateAssignment(ctx, asg); err != nil {
		return err
	}
	return nil
}
