package main

// DeptCmd groups the department commands.
type DeptCmd struct {
	Show   DeptShowCmd   `cmd:"" default:"withargs" help:"Print a department with its manager"`
	Create DeptCreateCmd `cmd:"" help:"Add a department"`
	Rename DeptRenameCmd `cmd:"" help:"Change the name of a department"`
	Remove DeptRemoveCmd `cmd:"" help:"Delete a department"`
}

type DeptShowCmd struct {
	DeptNo string `arg:"" help:"Department number, e.g. d005"`
}

func (c *DeptShowCmd) Run(a *app) error {
	dir, err := a.directory()
	if err != nil {
		return err
	}
	row, err := dir.DepartmentSummary(a.ctx, c.DeptNo)
	if err != nil {
		return err
	}
	return a.printJSON(row)
}

type DeptCreateCmd struct {
	DeptNo string `arg:"" help:"Department number"`
	Name   string `arg:"" help:"Department name"`
}

func (c *DeptCreateCmd) Run(a *app) error {
	dir, err := a.directory()
	if err != nil {
		return err
	}
	dept, err := dir.CreateDepartment(a.ctx, c.DeptNo, c.Name)
	if err != nil {
		return err
	}
	return a.printJSON(dept.Properties())
}

type DeptRenameCmd struct {
	DeptNo string `arg:"" help:"Department number"`
	Name   string `arg:"" help:"New name"`
}

func (c *DeptRenameCmd) Run(a *app) error {
	dir, err := a.directory()
	if err != nil {
		return err
	}
	dept, err := dir.Department(a.ctx, c.DeptNo)
	if err != nil {
		return err
	}
	if _, err := dept.Rename(a.ctx, c.Name); err != nil {
		return err
	}
	return a.printJSON(dept.Properties())
}

type DeptRemoveCmd struct {
	DeptNo string `arg:"" help:"Department number"`
}

func (c *DeptRemoveCmd) Run(a *app) error {
	dir, err := a.directory()
	if err != nil {
		return err
	}
	dept, err := dir.Department(a.ctx, c.DeptNo)
	if err != nil {
		return err
	}
	if _, err := dept.Remove(a.ctx); err != nil {
		return err
	}
	a.printf("removed %s\n", c.DeptNo)
	return nil
}
